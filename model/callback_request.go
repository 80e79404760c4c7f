package model

import "time"

// CallbackRequest is a visitor asking to be contacted about a course
type CallbackRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string    `gorm:"type:varchar(20);not null" json:"phone"`
	CourseID  *uint     `json:"course_id,omitempty"`
	Message   string    `gorm:"type:text" json:"message"`
	Status    string    `gorm:"type:varchar(20);default:'new'" json:"status"` // new, contacted, closed

	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:SET NULL" json:"course,omitempty"`
}
