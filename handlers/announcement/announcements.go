package announcement

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// AnnouncementHandler handles course announcements
type AnnouncementHandler struct {
	announcements *services.AnnouncementService
	validator     *validation.Validator
}

// NewAnnouncementHandler creates an announcement handler
func NewAnnouncementHandler(announcements *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements, validator: validation.NewValidator()}
}

// List handles GET /api/v1/announcements?course=<slug>
func (h *AnnouncementHandler) List(c *fiber.Ctx) error {
	_, limit := handlers.Page(c, 20)

	items, err := h.announcements.List(c.UserContext(), services.AnnouncementFilter{
		CourseSlug:    c.Query("course"),
		PublishedOnly: true,
		Limit:         limit,
	})
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, items)
}

// AdminList handles GET /api/v1/admin/announcements, including unpublished courses
func (h *AnnouncementHandler) AdminList(c *fiber.Ctx) error {
	_, limit := handlers.Page(c, 50)

	items, err := h.announcements.List(c.UserContext(), services.AnnouncementFilter{
		CourseSlug: c.Query("course"),
		Limit:      limit,
	})
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, items)
}

// Create handles POST /api/v1/courses/:id/announcements
func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.AnnouncementInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	item, err := h.announcements.Create(c.UserContext(), user, courseID, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, item)
}

// Update handles PUT /api/v1/announcements/:id
func (h *AnnouncementHandler) Update(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.AnnouncementInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	item, err := h.announcements.Update(c.UserContext(), user, id, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, item)
}

// Delete handles DELETE /api/v1/announcements/:id
func (h *AnnouncementHandler) Delete(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.announcements.Delete(c.UserContext(), user, id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Announcement deleted", nil)
}
