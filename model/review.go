package model

import "time"

// Review is a user's rating of a course they are enrolled in
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_review_user_course" json:"user_id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_review_user_course;index" json:"course_id"`
	Rating     int       `gorm:"not null" json:"rating"` // 1-5
	Comment    string    `gorm:"type:text" json:"comment"`
	IsApproved bool      `gorm:"default:true" json:"is_approved"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
