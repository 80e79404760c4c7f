package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// ConfirmTwoFactorRequest carries the setup code
type ConfirmTwoFactorRequest struct {
	Code string `json:"code" validate:"required,otp"`
}

// DisableTwoFactorRequest re-confirms the password
type DisableTwoFactorRequest struct {
	Password string `json:"password" validate:"required"`
}

// EnableTwoFactor handles POST /auth/2fa/enable by emailing a setup code
func (h *AuthHandler) EnableTwoFactor(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.twoFactorService.Enable(c.UserContext(), user); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Verification code sent to your email", nil)
}

// VerifyTwoFactorSetup handles POST /auth/2fa/verify-setup
func (h *AuthHandler) VerifyTwoFactorSetup(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req ConfirmTwoFactorRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.twoFactorService.ConfirmSetup(c.UserContext(), user, req.Code); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Two-factor authentication enabled", fiber.Map{"two_factor_enabled": true})
}

// DisableTwoFactor handles POST /auth/2fa/disable
func (h *AuthHandler) DisableTwoFactor(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req DisableTwoFactorRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.twoFactorService.Disable(c.UserContext(), user, req.Password); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Two-factor authentication disabled", fiber.Map{"two_factor_enabled": false})
}
