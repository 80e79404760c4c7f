package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/model"
	authutil "github.com/sahilchouksey/codelearn-api/utils/auth"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/middleware"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken handles POST /auth/refresh. The presented refresh token is
// revoked and a new pair issued.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}
	if claims.TokenType != authutil.TokenTypeRefresh {
		return response.Unauthorized(c, "Invalid token type")
	}

	ctx := c.UserContext()
	isRevoked, err := h.blacklistService.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	user, err := h.authService.GetUser(ctx, claims.UserID)
	if err != nil {
		return response.Unauthorized(c, "User not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	// The old token expires on its own if this fails
	if err := h.blacklistService.RevokeToken(ctx, claims.ID, user.ID, expiryOf(claims), model.RevokeReasonRefresh); err != nil {
		logger.L().Warn("failed to revoke refresh token", "user_id", user.ID, "error", err)
	}

	tokens.User = nil
	return response.Success(c, tokens)
}

// Logout handles POST /auth/logout by blacklisting the access token
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.BadRequest(c, "No token ID found")
	}

	if err := h.blacklistService.RevokeToken(c.UserContext(), claims.ID, user.ID, expiryOf(claims), model.RevokeReasonLogout); err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}

// LogoutAll handles POST /auth/logout-all by invalidating every issued token
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.authService.LogoutAll(c.UserContext(), user.ID); err != nil {
		return handlers.RespondError(c, err)
	}

	return response.SuccessWithMessage(c, "Logged out from all devices", nil)
}

func expiryOf(claims *authutil.Claims) time.Time {
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(24 * time.Hour)
}
