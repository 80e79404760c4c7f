package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enrollment grants a user access to a course
type Enrollment struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time       `json:"enrolled_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	UserID             uint            `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID           uint            `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	ProgressPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"progress_percentage"`
	IsCompleted        bool            `gorm:"default:false" json:"is_completed"`
	CompletionDate     *time.Time      `json:"completion_date,omitempty"`
	LastAccessedAt     time.Time       `json:"last_accessed_at"`

	// Relationships
	User            *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course          *Course           `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	LectureProgress []LectureProgress `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// LectureProgress is the per lecture watch state within an enrollment
type LectureProgress struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	EnrollmentID    uint       `gorm:"not null;uniqueIndex:idx_progress_enrollment_lecture" json:"enrollment_id"`
	LectureID       uint       `gorm:"not null;uniqueIndex:idx_progress_enrollment_lecture" json:"lecture_id"`
	IsCompleted     bool       `gorm:"default:false" json:"is_completed"`
	WatchedDuration int        `gorm:"default:0" json:"watched_duration"` // seconds
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for LectureProgress
func (LectureProgress) TableName() string {
	return "lecture_progress"
}

// Wishlist is a course a user bookmarked for later
type Wishlist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"added_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_course" json:"course_id"`

	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Wishlist
func (Wishlist) TableName() string {
	return "wishlist"
}

// Certificate is issued once a user completes every lecture of a course
type Certificate struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"issued_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	UserID            uint      `gorm:"not null;uniqueIndex:idx_certificate_user_course" json:"user_id"`
	CourseID          uint      `gorm:"not null;uniqueIndex:idx_certificate_user_course" json:"course_id"`
	CertificateNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"certificate_number"`
	FileURL           string    `gorm:"type:varchar(500)" json:"file_url,omitempty"`

	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// LiveSession is a scheduled class for the students of a course
type LiveSession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	CourseID        uint      `gorm:"not null;index" json:"course_id"`
	Title           string    `gorm:"type:varchar(200);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	MeetingURL      string    `gorm:"type:varchar(500)" json:"meeting_url"`
	StartsAt        time.Time `gorm:"not null;index" json:"starts_at"`
	DurationMinutes int       `gorm:"default:60" json:"duration_minutes"`
	CreatedBy       uint      `json:"created_by"`

	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
