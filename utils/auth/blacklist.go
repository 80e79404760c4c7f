package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlacklistService revokes individual tokens by their JWT id
type BlacklistService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBlacklistService creates a blacklist over db
func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// RevokeToken blacklists jti until expiresAt. Revoking twice is a no-op.
func (s *BlacklistService) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	entry := model.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt.UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether jti is blacklisted and not yet expired
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, s.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return count > 0, nil
}

// CleanupExpiredTokens drops entries whose tokens expired and returns how many went
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&model.RevokedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean up revoked tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
