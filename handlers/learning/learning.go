package learning

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// defaultSessionWindow is how far ahead the live session calendar looks
const defaultSessionWindow = 30 * 24 * time.Hour

// LearningHandler serves the learner side: enrollments, progress, wishlist,
// certificates and live sessions
type LearningHandler struct {
	enrollments *services.EnrollmentService
	validator   *validation.Validator
}

// NewLearningHandler creates a learning handler
func NewLearningHandler(enrollments *services.EnrollmentService) *LearningHandler {
	return &LearningHandler{enrollments: enrollments, validator: validation.NewValidator()}
}

// MyLearning handles GET /api/v1/learning
func (h *LearningHandler) MyLearning(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	enrollments, err := h.enrollments.MyLearning(c.UserContext(), user.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, enrollments)
}

// Player handles GET /api/v1/learning/:slug
func (h *LearningHandler) Player(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	view, err := h.enrollments.Player(c.UserContext(), user.ID, c.Params("slug"))
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, view)
}

// UpdateProgress handles POST /api/v1/learning/progress
func (h *LearningHandler) UpdateProgress(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.ProgressInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	result, err := h.enrollments.UpdateProgress(c.UserContext(), user.ID, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, result)
}

// EnrollFree handles POST /api/v1/courses/:id/enroll-free
func (h *LearningHandler) EnrollFree(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	enrollment, err := h.enrollments.EnrollFree(c.UserContext(), user.ID, courseID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, enrollment)
}

// Wishlist handles GET /api/v1/wishlist
func (h *LearningHandler) Wishlist(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	items, err := h.enrollments.Wishlist(c.UserContext(), user.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, items)
}

// AddToWishlist handles POST /api/v1/wishlist/:course_id
func (h *LearningHandler) AddToWishlist(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	courseID, err := handlers.ParamID(c, "course_id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	item, err := h.enrollments.AddToWishlist(c.UserContext(), user.ID, courseID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, item)
}

// RemoveFromWishlist handles DELETE /api/v1/wishlist/:course_id
func (h *LearningHandler) RemoveFromWishlist(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	courseID, err := handlers.ParamID(c, "course_id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.enrollments.RemoveFromWishlist(c.UserContext(), user.ID, courseID); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Removed from wishlist", nil)
}

// Certificates handles GET /api/v1/certificates
func (h *LearningHandler) Certificates(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	certs, err := h.enrollments.Certificates(c.UserContext(), user.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, certs)
}

// Certificate handles GET /api/v1/certificates/:id
func (h *LearningHandler) Certificate(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	cert, err := h.enrollments.Certificate(c.UserContext(), user.ID, id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, cert)
}

// LiveSessions handles GET /api/v1/live-sessions?from=&to= (RFC 3339)
func (h *LearningHandler) LiveSessions(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	from := time.Now().UTC()
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return response.BadRequest(c, "from must be an RFC 3339 timestamp")
		}
	}
	to := from.Add(defaultSessionWindow)
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return response.BadRequest(c, "to must be an RFC 3339 timestamp")
		}
	}
	if !to.After(from) {
		return response.BadRequest(c, "to must be after from")
	}

	sessions, err := h.enrollments.UpcomingSessions(c.UserContext(), user.ID, from, to)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, sessions)
}
