package model

import "time"

const (
	TwoFactorCodeLength   = 6
	TwoFactorCodeTTL      = 10 * time.Minute
	TwoFactorMaxAttempts  = 5
	TwoFactorLockDuration = 30 * time.Minute
)

// TwoFactorAuth stores the emailed verification code and lockout state of a user
type TwoFactorAuth struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	VerificationCode string     `gorm:"type:varchar(6)" json:"-"`
	CodeCreatedAt    time.Time  `json:"code_created_at"`
	IsVerified       bool       `gorm:"default:false" json:"is_verified"`
	FailedAttempts   int        `gorm:"default:0" json:"failed_attempts"`
	LockedUntil      *time.Time `json:"locked_until,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for TwoFactorAuth
func (TwoFactorAuth) TableName() string {
	return "two_factor_auth"
}

// IsLocked reports whether verification is currently blocked
func (t *TwoFactorAuth) IsLocked(now time.Time) bool {
	return t.LockedUntil != nil && now.Before(*t.LockedUntil)
}

// LockRemaining returns how long the lock still holds
func (t *TwoFactorAuth) LockRemaining(now time.Time) time.Duration {
	if !t.IsLocked(now) {
		return 0
	}
	return t.LockedUntil.Sub(now)
}

// IsCodeExpired reports whether the current code is older than TwoFactorCodeTTL
func (t *TwoFactorAuth) IsCodeExpired(now time.Time) bool {
	return now.Sub(t.CodeCreatedAt) > TwoFactorCodeTTL
}
