package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents a registered user in the system
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name             string         `gorm:"not null" json:"name"`
	PhoneNumber      string         `gorm:"type:varchar(15)" json:"phone_number,omitempty"`
	Role             string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, instructor, admin
	TwoFactorEnabled bool           `gorm:"default:false" json:"two_factor_enabled"`
	TokenVersion     int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Profile       *UserProfile    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Enrollments   []Enrollment    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Orders        []Order         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AdminAuditLog []AdminAuditLog `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	RevokedTokens []RevokedToken  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanTeach reports whether the user may manage course content
func (u *User) CanTeach() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin
}

// UserProfile holds optional public profile details
type UserProfile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio        string    `gorm:"type:text" json:"bio"`
	Profession string    `gorm:"type:varchar(100)" json:"profession"`
	Website    string    `gorm:"type:varchar(255)" json:"website"`
	Facebook   string    `gorm:"type:varchar(255)" json:"facebook"`
	Twitter    string    `gorm:"type:varchar(255)" json:"twitter"`
	Linkedin   string    `gorm:"type:varchar(255)" json:"linkedin"`
	Github     string    `gorm:"type:varchar(255)" json:"github"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserProfile
func (UserProfile) TableName() string {
	return "user_profiles"
}
