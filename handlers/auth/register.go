package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services"
	authutil "github.com/sahilchouksey/codelearn-api/utils/auth"
	"github.com/sahilchouksey/codelearn-api/utils/middleware"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService          *services.AuthService
	twoFactorService     *services.TwoFactorService
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	twoFactorService *services.TwoFactorService,
	jwtManager *authutil.JWTManager,
	blacklistService *authutil.BlacklistService,
	bruteForceProtection *middleware.BruteForceProtection,
) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		twoFactorService:     twoFactorService,
		jwtManager:           jwtManager,
		blacklistService:     blacklistService,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// TokenResponse represents an issued token pair
type TokenResponse struct {
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"` // in seconds
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID               uint               `json:"id"`
	Email            string             `json:"email"`
	Name             string             `json:"name"`
	PhoneNumber      string             `json:"phone_number,omitempty"`
	Role             string             `json:"role"`
	TwoFactorEnabled bool               `json:"two_factor_enabled"`
	Profile          *model.UserProfile `json:"profile,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func newUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		PhoneNumber:      user.PhoneNumber,
		Role:             user.Role,
		TwoFactorEnabled: user.TwoFactorEnabled,
		Profile:          user.Profile,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}

// issueTokens generates an access and refresh token for user
func (h *AuthHandler) issueTokens(user *model.User) (*TokenResponse, error) {
	accessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		User:         newUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtManager.AccessExpiry().Seconds()),
	}, nil
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	if ok, problems := validation.ValidatePassword(req.Password); !ok {
		return response.ValidationFailed(c, map[string]string{"password": problems[0]})
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Created(c, tokens)
}
