package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// ForgotPasswordRequest represents a password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents a password reset confirmation
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// ChangePasswordRequest represents a password change for a logged in user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ForgotPassword handles POST /auth/password-reset/request. The answer is
// the same whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.authService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return handlers.RespondError(c, err)
	}

	return response.SuccessWithMessage(c, "If the email exists, a password reset link has been sent", nil)
}

// ResetPassword handles POST /auth/password-reset/confirm
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}
	if ok, problems := validation.ValidatePassword(req.NewPassword); !ok {
		return response.ValidationFailed(c, map[string]string{"new_password": problems[0]})
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return handlers.RespondError(c, err)
	}

	return response.SuccessWithMessage(c, "Password has been reset, please log in again", nil)
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req ChangePasswordRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}
	if ok, problems := validation.ValidatePassword(req.NewPassword); !ok {
		return response.ValidationFailed(c, map[string]string{"new_password": problems[0]})
	}

	if err := h.authService.ChangePassword(c.UserContext(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return handlers.RespondError(c, err)
	}

	return response.SuccessWithMessage(c, "Password changed, other sessions have been signed out", nil)
}
