package callback

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// CallbackHandler takes "call me back" requests and lets admins work them
type CallbackHandler struct {
	callbacks *services.CallbackService
	validator *validation.Validator
}

// NewCallbackHandler creates a callback handler
func NewCallbackHandler(callbacks *services.CallbackService) *CallbackHandler {
	return &CallbackHandler{callbacks: callbacks, validator: validation.NewValidator()}
}

// UpdateStatusRequest moves a request along
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted closed"`
}

// Submit handles POST /api/v1/callback-requests
func (h *CallbackHandler) Submit(c *fiber.Ctx) error {
	var req services.CallbackInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}
	req.Name = validation.SanitizeString(req.Name)
	req.Message = validation.SanitizeString(req.Message)

	item, err := h.callbacks.Submit(c.UserContext(), req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(response.Response{
		Success: true,
		Message: "Thanks, we will call you back soon",
		Data:    fiber.Map{"id": item.ID},
	})
}

// List handles GET /api/v1/admin/callback-requests
func (h *CallbackHandler) List(c *fiber.Ctx) error {
	page, limit := handlers.Page(c, 20)

	items, total, err := h.callbacks.List(c.UserContext(), c.Query("status"), page, limit)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Paginated(c, items, response.CalculatePagination(page, limit, total))
}

// UpdateStatus handles PATCH /api/v1/admin/callback-requests/:id
func (h *CallbackHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req UpdateStatusRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	item, err := h.callbacks.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, item)
}
