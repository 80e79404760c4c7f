package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services/mailer"
	authutil "github.com/sahilchouksey/codelearn-api/utils/auth"
	"github.com/sahilchouksey/codelearn-api/utils/generator"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"gorm.io/gorm"
)

// PasswordResetTTL is how long an emailed reset link stays valid
const PasswordResetTTL = time.Hour

// AuthService manages accounts, passwords and profiles
type AuthService struct {
	db     *gorm.DB
	outbox *Outbox
	emails *EmailService
	now    func() time.Time
}

// NewAuthService creates an auth service
func NewAuthService(db *gorm.DB, outbox *Outbox, emails *EmailService) *AuthService {
	return &AuthService{
		db:     db,
		outbox: outbox,
		emails: emails,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput is a new student account
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Name        string `json:"name" validate:"required,min=2,max=100"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
}

// ProfileInput is a partial profile update
type ProfileInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,phone"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
	Profession  *string `json:"profession" validate:"omitempty,max=100"`
	Website     *string `json:"website" validate:"omitempty,url,max=255"`
	Facebook    *string `json:"facebook" validate:"omitempty,url,max=255"`
	Twitter     *string `json:"twitter" validate:"omitempty,url,max=255"`
	Linkedin    *string `json:"linkedin" validate:"omitempty,url,max=255"`
	Github      *string `json:"github" validate:"omitempty,url,max=255"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a student account. The welcome email goes out through the outbox.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Role:         model.RoleStudent,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: an account with this email already exists", ErrConflict)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := tx.Create(&model.UserProfile{UserID: user.ID}).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		_, err := s.outbox.Enqueue(tx, model.TopicUserRegistered, fmt.Sprint(user.ID), UserEvent{UserID: user.ID, Email: user.Email})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.outbox.Nudge()
	return user, nil
}

// Authenticate checks an email and password pair
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if err := authutil.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// GetUser loads a user by id
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields of in
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userUpdates := map[string]interface{}{}
		if in.Name != nil {
			userUpdates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.PhoneNumber != nil {
			userUpdates["phone_number"] = strings.TrimSpace(*in.PhoneNumber)
		}
		if len(userUpdates) > 0 {
			if err := tx.Model(&model.User{}).Where("id = ?", userID).Updates(userUpdates).Error; err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}

		profile := model.UserProfile{UserID: userID}
		if err := tx.Where(model.UserProfile{UserID: userID}).FirstOrCreate(&profile).Error; err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		fields := map[string]*string{
			"bio":        in.Bio,
			"profession": in.Profession,
			"website":    in.Website,
			"facebook":   in.Facebook,
			"twitter":    in.Twitter,
			"linkedin":   in.Linkedin,
			"github":     in.Github,
		}
		profileUpdates := map[string]interface{}{}
		for column, v := range fields {
			if v != nil {
				profileUpdates[column] = strings.TrimSpace(*v)
			}
		}
		if len(profileUpdates) == 0 {
			return nil
		}
		if err := tx.Model(&profile).Updates(profileUpdates).Error; err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// ChangePassword replaces the password and signs the user out everywhere
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := authutil.VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return newValidationError("old_password", "current password is incorrect")
	}
	return s.setPassword(s.db.WithContext(ctx), userID, newPassword)
}

func (s *AuthService) setPassword(tx *gorm.DB, userID uint, password string) error {
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	err = tx.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash": hash,
		"token_version": gorm.Expr("token_version + ?", 1),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// LogoutAll invalidates every token issued to the user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// RequestPasswordReset emails a reset link. Unknown addresses are ignored
// silently so the endpoint does not reveal which emails exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	reset := model.PasswordResetToken{
		UserID:    user.ID,
		Token:     generator.Token(),
		ExpiresAt: s.now().Add(PasswordResetTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	res := s.emails.SendPasswordResetEmail(ctx, user.Email, user.Name, reset.Token)
	if res.Status == mailer.StatusFailed {
		logger.L().Warn("password reset email not delivered", "user_id", user.ID, "reason", res.Reason)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset model.PasswordResetToken
		if err := tx.Where("token = ?", token).First(&reset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCode
			}
			return fmt.Errorf("failed to fetch reset token: %w", err)
		}
		if reset.IsUsed() {
			return ErrInvalidCode
		}
		if reset.ExpiredAt(s.now()) {
			return ErrExpired
		}

		if err := s.setPassword(tx, reset.UserID, newPassword); err != nil {
			return err
		}
		return tx.Model(&reset).Update("used_at", s.now()).Error
	})
}

// CleanupExpiredResetTokens removes used reset tokens and those past their expiry
func (s *AuthService) CleanupExpiredResetTokens(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ? OR used_at IS NOT NULL", s.now()).Delete(&model.PasswordResetToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete reset tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
