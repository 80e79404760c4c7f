package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// CourseHandler handles catalog browsing, course authoring and reviews
type CourseHandler struct {
	catalog   *services.CatalogService
	reviews   *services.ReviewService
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(catalog *services.CatalogService, reviews *services.ReviewService) *CourseHandler {
	return &CourseHandler{
		catalog:   catalog,
		reviews:   reviews,
		validator: validation.NewValidator(),
	}
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, limit := handlers.Page(c, 12)

	courses, total, err := h.catalog.ListCourses(c.UserContext(), services.CourseFilter{
		Level:    c.Query("level"),
		Category: c.Query("category"),
		Price:    c.Query("price"),
		Featured: c.QueryBool("featured"),
		Query:    c.Query("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return handlers.RespondError(c, err)
	}

	return response.Paginated(c, courses, response.CalculatePagination(page, limit, total))
}

// GetCourse handles GET /api/v1/courses/:slug
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.catalog.GetCourse(c.UserContext(), c.Params("slug"))
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, course)
}

// ListCategories handles GET /api/v1/categories
func (h *CourseHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, categories)
}

// MyCourses handles GET /api/v1/instructor/courses
func (h *CourseHandler) MyCourses(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	courses, err := h.catalog.InstructorCourses(c.UserContext(), user)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, courses)
}

// CreateCourse handles POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.CourseInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	course, err := h.catalog.CreateCourse(c.UserContext(), user, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.CourseInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	course, err := h.catalog.UpdateCourse(c.UserContext(), user, id, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.catalog.DeleteCourse(c.UserContext(), user, id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}

// AddSection handles POST /api/v1/courses/:id/sections
func (h *CourseHandler) AddSection(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.SectionInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	section, err := h.catalog.AddSection(c.UserContext(), user, courseID, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, section)
}

// AddLecture handles POST /api/v1/sections/:id/lectures
func (h *CourseHandler) AddLecture(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	sectionID, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.LectureInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	lecture, err := h.catalog.AddLecture(c.UserContext(), user, sectionID, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, lecture)
}

// DeleteLecture handles DELETE /api/v1/lectures/:id
func (h *CourseHandler) DeleteLecture(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.catalog.DeleteLecture(c.UserContext(), user, id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Lecture deleted successfully", nil)
}
