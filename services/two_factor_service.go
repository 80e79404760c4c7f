package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services/mailer"
	authutil "github.com/sahilchouksey/codelearn-api/utils/auth"
	"github.com/sahilchouksey/codelearn-api/utils/generator"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Code purposes shown in the email subject
const (
	TwoFactorPurposeLogin = "login"
	TwoFactorPurposeSetup = "enable_2fa"
)

// TwoFactorService issues and checks emailed one time codes
type TwoFactorService struct {
	db     *gorm.DB
	emails *EmailService
	now    func() time.Time
}

// NewTwoFactorService creates a two-factor service
func NewTwoFactorService(db *gorm.DB, emails *EmailService) *TwoFactorService {
	return &TwoFactorService{
		db:     db,
		emails: emails,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func lockTwoFactor(tx *gorm.DB, userID uint) (*model.TwoFactorAuth, error) {
	record := model.TwoFactorAuth{UserID: userID}
	if err := tx.Where(model.TwoFactorAuth{UserID: userID}).FirstOrCreate(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to load two-factor state: %w", err)
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, record.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to lock two-factor state: %w", err)
	}
	return &record, nil
}

// IssueCode stores a fresh code and emails it. A locked account gets no code.
func (s *TwoFactorService) IssueCode(ctx context.Context, user *model.User, purpose string) error {
	var code string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := lockTwoFactor(tx, user.ID)
		if err != nil {
			return err
		}
		now := s.now()
		if record.IsLocked(now) {
			return &LockedError{Remaining: record.LockRemaining(now)}
		}

		if code, err = generator.NumericCode(model.TwoFactorCodeLength); err != nil {
			return err
		}
		return tx.Model(record).Updates(map[string]interface{}{
			"verification_code": code,
			"code_created_at":   now,
			"is_verified":       false,
		}).Error
	})
	if err != nil {
		return err
	}

	res := s.emails.SendTwoFactorCode(ctx, user, code, purpose)
	if res.Status == mailer.StatusFailed {
		return fmt.Errorf("%w: verification code could not be sent", ErrExternal)
	}
	return nil
}

// Verify checks code for the user. Wrong codes count towards a lockout that
// is committed even though the call fails.
func (s *TwoFactorService) Verify(ctx context.Context, userID uint, code string) error {
	var verifyErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := lockTwoFactor(tx, userID)
		if err != nil {
			return err
		}
		now := s.now()

		if record.IsLocked(now) {
			verifyErr = &LockedError{Remaining: record.LockRemaining(now)}
			return nil
		}

		updates := map[string]interface{}{}
		attempts := record.FailedAttempts
		// A lapsed lock starts a fresh round of attempts
		if record.LockedUntil != nil {
			attempts = 0
			updates["failed_attempts"] = 0
			updates["locked_until"] = nil
		}

		switch {
		case record.VerificationCode == "":
			verifyErr = ErrInvalidCode
		case record.IsCodeExpired(now):
			verifyErr = ErrExpired
		case subtle.ConstantTimeCompare([]byte(record.VerificationCode), []byte(code)) != 1:
			attempts++
			updates["failed_attempts"] = attempts
			if attempts >= model.TwoFactorMaxAttempts {
				updates["locked_until"] = now.Add(model.TwoFactorLockDuration)
				verifyErr = &LockedError{Remaining: model.TwoFactorLockDuration}
				logger.L().Warn("two-factor locked after repeated failures", "user_id", userID)
			} else {
				verifyErr = &AttemptsError{Remaining: model.TwoFactorMaxAttempts - attempts}
			}
		default:
			updates["is_verified"] = true
			updates["failed_attempts"] = 0
			updates["locked_until"] = nil
			updates["verification_code"] = ""
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(record).Updates(updates).Error
	})
	if err != nil {
		return err
	}
	return verifyErr
}

// Enable starts setup by emailing a code
func (s *TwoFactorService) Enable(ctx context.Context, user *model.User) error {
	if user.TwoFactorEnabled {
		return fmt.Errorf("%w: two-factor authentication is already enabled", ErrConflict)
	}
	return s.IssueCode(ctx, user, TwoFactorPurposeSetup)
}

// ConfirmSetup turns two-factor on once the setup code checks out
func (s *TwoFactorService) ConfirmSetup(ctx context.Context, user *model.User, code string) error {
	if err := s.Verify(ctx, user.ID, code); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("two_factor_enabled", true).Error; err != nil {
		return fmt.Errorf("failed to enable two-factor: %w", err)
	}
	return nil
}

// Disable turns two-factor off after re-checking the password
func (s *TwoFactorService) Disable(ctx context.Context, user *model.User, password string) error {
	if err := authutil.VerifyPassword(user.PasswordHash, password); err != nil {
		return newValidationError("password", "password is incorrect")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("two_factor_enabled", false).Error; err != nil {
			return fmt.Errorf("failed to disable two-factor: %w", err)
		}
		err := tx.Where("user_id = ?", user.ID).Delete(&model.TwoFactorAuth{}).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to clear two-factor state: %w", err)
		}
		return nil
	})
}
