package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// ListReviews handles GET /api/v1/courses/:id/reviews
func (h *CourseHandler) ListReviews(c *fiber.Ctx) error {
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}
	page, limit := handlers.Page(c, 10)

	reviews, total, err := h.reviews.ListForCourse(c.UserContext(), courseID, page, limit)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Paginated(c, reviews, response.CalculatePagination(page, limit, total))
}

// UpsertReview handles POST /api/v1/courses/:id/reviews. A second review by
// the same learner replaces the first.
func (h *CourseHandler) UpsertReview(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.ReviewInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	review, err := h.reviews.Upsert(c.UserContext(), user.ID, courseID, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, review)
}

// DeleteReview handles DELETE /api/v1/reviews/:id
func (h *CourseHandler) DeleteReview(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.reviews.Delete(c.UserContext(), user, id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Review deleted successfully", nil)
}
