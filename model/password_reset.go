package model

import "time"

// PasswordResetToken is a single use token mailed in a reset link
type PasswordResetToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Token     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for PasswordResetToken
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// ExpiredAt reports whether the token is past its expiry at now
func (p *PasswordResetToken) ExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// IsUsed reports whether the token was already consumed
func (p *PasswordResetToken) IsUsed() bool {
	return p.UsedAt != nil
}
