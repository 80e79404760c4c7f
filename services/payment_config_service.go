package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/crypto"
	"gorm.io/gorm"
)

const paymentConfigID = 1

// PaymentConfigService reads and updates the merchant payment settings
type PaymentConfigService struct {
	db        *gorm.DB
	masterKey string
	env       RazorpayCredentials
}

// NewPaymentConfigService creates the service. env holds the Razorpay keys from
// the environment, used when the stored config leaves them empty.
func NewPaymentConfigService(db *gorm.DB, masterKey string, env RazorpayCredentials) *PaymentConfigService {
	return &PaymentConfigService{db: db, masterKey: masterKey, env: env}
}

// PublicPaymentConfig is what checkout pages may see
type PublicPaymentConfig struct {
	UPIID            string `json:"upi_id"`
	UPIQRURL         string `json:"upi_qr_url"`
	RazorpayKeyID    string `json:"razorpay_key_id"`
	RazorpayEnabled  bool   `json:"razorpay_enabled"`
	RazorpayTestMode bool   `json:"razorpay_test_mode"`
}

// PaymentConfigInput is a partial update. A nil field is left unchanged.
type PaymentConfigInput struct {
	UPIID             *string `json:"upi_id" validate:"omitempty,max=100"`
	UPIQRURL          *string `json:"upi_qr_url" validate:"omitempty,url,max=500"`
	RazorpayKeyID     *string `json:"razorpay_key_id" validate:"omitempty,max=100"`
	RazorpayKeySecret *string `json:"razorpay_key_secret" validate:"omitempty,max=200"`
	RazorpayTestMode  *bool   `json:"razorpay_test_mode"`
}

// Get returns the config row, creating it on first use
func (s *PaymentConfigService) Get(ctx context.Context) (*model.PaymentConfig, error) {
	return s.load(s.db.WithContext(ctx))
}

func (s *PaymentConfigService) load(tx *gorm.DB) (*model.PaymentConfig, error) {
	var cfg model.PaymentConfig
	if err := tx.Where(model.PaymentConfig{ID: paymentConfigID}).FirstOrCreate(&cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to load payment config: %w", err)
	}
	return &cfg, nil
}

// Public returns the non secret part of the config
func (s *PaymentConfigService) Public(ctx context.Context) (*PublicPaymentConfig, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	creds, err := s.credentials(cfg)
	if err != nil {
		return nil, err
	}
	return &PublicPaymentConfig{
		UPIID:            cfg.UPIID,
		UPIQRURL:         cfg.UPIQRURL,
		RazorpayKeyID:    creds.KeyID,
		RazorpayEnabled:  creds.Configured(),
		RazorpayTestMode: cfg.RazorpayTestMode,
	}, nil
}

// Update applies in and seals a new Razorpay key secret
func (s *PaymentConfigService) Update(ctx context.Context, adminID uint, in PaymentConfigInput) (*model.PaymentConfig, error) {
	var cfg *model.PaymentConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if cfg, err = s.load(tx); err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_by": adminID}
		if in.UPIID != nil {
			updates["upi_id"] = strings.TrimSpace(*in.UPIID)
		}
		if in.UPIQRURL != nil {
			updates["upi_qr_url"] = strings.TrimSpace(*in.UPIQRURL)
		}
		if in.RazorpayKeyID != nil {
			updates["razorpay_key_id"] = strings.TrimSpace(*in.RazorpayKeyID)
		}
		if in.RazorpayTestMode != nil {
			updates["razorpay_test_mode"] = *in.RazorpayTestMode
		}
		if in.RazorpayKeySecret != nil {
			cipher, salt := "", ""
			if secret := strings.TrimSpace(*in.RazorpayKeySecret); secret != "" {
				if cipher, salt, err = crypto.SealSecret(secret, s.masterKey); err != nil {
					return fmt.Errorf("failed to encrypt razorpay secret: %w", err)
				}
			}
			updates["razorpay_key_secret_cipher"] = cipher
			updates["razorpay_key_secret_salt"] = salt
		}

		if err := tx.Model(cfg).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update payment config: %w", err)
		}
		return tx.First(cfg, cfg.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// RazorpayCredentials resolves the active key pair. Stored values override the environment.
func (s *PaymentConfigService) RazorpayCredentials(ctx context.Context) (RazorpayCredentials, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return RazorpayCredentials{}, err
	}
	return s.credentials(cfg)
}

func (s *PaymentConfigService) credentials(cfg *model.PaymentConfig) (RazorpayCredentials, error) {
	creds := s.env
	if cfg.RazorpayKeyID != "" {
		creds.KeyID = cfg.RazorpayKeyID
	}
	if cfg.RazorpayKeySecretCipher != "" {
		secret, err := crypto.OpenSecret(cfg.RazorpayKeySecretCipher, cfg.RazorpayKeySecretSalt, s.masterKey)
		if err != nil {
			return RazorpayCredentials{}, fmt.Errorf("failed to decrypt razorpay secret: %w", err)
		}
		creds.KeySecret = secret
	}
	return creds, nil
}
