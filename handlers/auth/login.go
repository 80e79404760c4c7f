package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// MFARequiredResponse is returned when the password was right but the
// account still needs its emailed code
type MFARequiredResponse struct {
	MFARequired bool   `json:"mfa_required"`
	MFAToken    string `json:"mfa_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// VerifyTwoFactorRequest completes a login with the emailed code
type VerifyTwoFactorRequest struct {
	MFAToken string `json:"mfa_token" validate:"required"`
	Code     string `json:"code" validate:"required,otp"`
}

// ResendTwoFactorRequest asks for a fresh login code
type ResendTwoFactorRequest struct {
	MFAToken string `json:"mfa_token" validate:"required"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	ctx := c.UserContext()
	ip := c.IP()

	user, err := h.authService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			h.bruteForceProtection.RecordFailedAttempt(ctx, ip, req.Email)
		}
		return handlers.RespondError(c, err)
	}

	// Clear failed attempts on successful login
	h.bruteForceProtection.RecordSuccessfulAttempt(ctx, ip)

	if user.TwoFactorEnabled {
		if err := h.twoFactorService.IssueCode(ctx, user, services.TwoFactorPurposeLogin); err != nil {
			return handlers.RespondError(c, err)
		}
		mfaToken, err := h.jwtManager.GenerateMFAToken(user.ID, user.Email, user.Role, user.TokenVersion)
		if err != nil {
			return response.InternalServerError(c, "Failed to generate token")
		}
		return response.SuccessWithMessage(c, "Verification code sent to your email", MFARequiredResponse{
			MFARequired: true,
			MFAToken:    mfaToken,
			ExpiresIn:   int(model.TwoFactorCodeTTL.Seconds()),
		})
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}
	return response.Success(c, tokens)
}

// VerifyTwoFactor handles POST /auth/2fa/verify
func (h *AuthHandler) VerifyTwoFactor(c *fiber.Ctx) error {
	var req VerifyTwoFactorRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	claims, err := h.jwtManager.ValidateMFAToken(req.MFAToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired verification session")
	}

	ctx := c.UserContext()
	if err := h.twoFactorService.Verify(ctx, claims.UserID, req.Code); err != nil {
		return handlers.RespondError(c, err)
	}

	user, err := h.authService.GetUser(ctx, claims.UserID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}
	return response.Success(c, tokens)
}

// ResendTwoFactor handles POST /auth/2fa/resend
func (h *AuthHandler) ResendTwoFactor(c *fiber.Ctx) error {
	var req ResendTwoFactorRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	claims, err := h.jwtManager.ValidateMFAToken(req.MFAToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired verification session")
	}

	ctx := c.UserContext()
	user, err := h.authService.GetUser(ctx, claims.UserID)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.twoFactorService.IssueCode(ctx, user, services.TwoFactorPurposeLogin); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Verification code sent to your email", nil)
}
