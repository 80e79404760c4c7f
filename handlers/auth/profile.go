package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// GetProfile handles GET /auth/me
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	current, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	user, err := h.authService.GetUser(c.UserContext(), current.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	return response.Success(c, newUserResponse(user))
}

// UpdateProfile handles PUT /auth/me
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	current, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.ProfileInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), current.ID, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	return response.SuccessWithMessage(c, "Profile updated successfully", newUserResponse(user))
}
