package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CourseLevel is the difficulty band of a course
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "beginner"
	CourseLevelIntermediate CourseLevel = "intermediate"
	CourseLevelAdvanced     CourseLevel = "advanced"
)

// Category groups courses for browsing
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"type:varchar(50)" json:"icon"` // Font Awesome icon class
	IsActive    bool      `gorm:"default:true" json:"is_active"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}

// Course represents a sellable learning product
type Course struct {
	ID                  uint                `gorm:"primaryKey" json:"id"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	DeletedAt           gorm.DeletedAt      `gorm:"index" json:"-"`
	Title               string              `gorm:"type:varchar(200);not null" json:"title"`
	Slug                string              `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
	InstructorID        uint                `gorm:"not null;index" json:"instructor_id"`
	CategoryID          *uint               `gorm:"index" json:"category_id,omitempty"`
	ShortDescription    string              `gorm:"type:varchar(300)" json:"short_description"`
	DetailedDescription string              `gorm:"type:text" json:"detailed_description"`
	ThumbnailURL        string              `gorm:"type:varchar(500)" json:"thumbnail_url"`
	PreviewVideoURL     string              `gorm:"type:varchar(500)" json:"preview_video_url"`
	Price               decimal.Decimal     `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	DiscountPrice       decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"discount_price"`
	Level               CourseLevel         `gorm:"type:varchar(20);default:'beginner'" json:"level"`
	Language            string              `gorm:"type:varchar(50);default:'English'" json:"language"`
	DurationHours       int                 `gorm:"default:0" json:"duration_hours"`
	TotalLectures       int                 `gorm:"default:0" json:"total_lectures"`
	Requirements        string              `gorm:"type:text" json:"requirements"`
	WhatYouWillLearn    string              `gorm:"type:text" json:"what_you_will_learn"`
	IsPublished         bool                `gorm:"default:false;index" json:"is_published"`
	IsFeatured          bool                `gorm:"default:false" json:"is_featured"`
	AverageRating       decimal.Decimal     `gorm:"type:numeric(3,2);not null;default:0" json:"average_rating"`
	TotalEnrollments    int                 `gorm:"default:0" json:"total_enrollments"`

	// Relationships
	Instructor *User     `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"instructor,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Sections   []Section `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"sections,omitempty"`
}

// ActualPrice is the discount price when it undercuts the list price, else the list price
func (c *Course) ActualPrice() decimal.Decimal {
	if c.HasDiscount() {
		return c.DiscountPrice.Decimal
	}
	return c.Price
}

// HasDiscount reports whether a discount price below the list price is set
func (c *Course) HasDiscount() bool {
	return c.DiscountPrice.Valid && c.DiscountPrice.Decimal.LessThan(c.Price)
}

// IsFree reports whether the course can be enrolled in without an order
func (c *Course) IsFree() bool {
	return c.Price.IsZero()
}

// Section is an ordered chapter of a course
type Section struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Position    int       `gorm:"default:0" json:"position"`

	// Relationships
	Lectures []Lecture `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"lectures,omitempty"`
}

// Lecture is a single video within a section
type Lecture struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	SectionID       uint      `gorm:"not null;index" json:"section_id"`
	Title           string    `gorm:"type:varchar(200);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	VideoURL        string    `gorm:"type:varchar(500)" json:"video_url"`
	DurationMinutes int       `gorm:"default:0" json:"duration_minutes"`
	Position        int       `gorm:"default:0" json:"position"`
	IsPreview       bool      `gorm:"default:false" json:"is_preview"` // Free preview lecture
	ResourceURL     string    `gorm:"type:varchar(500)" json:"resource_url,omitempty"`

	// Relationships
	Section *Section `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"-"`
}

// Announcement is a message an instructor posts to a course's students
type Announcement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CourseID     uint      `gorm:"not null;index" json:"course_id"`
	InstructorID uint      `gorm:"not null" json:"instructor_id"`
	Title        string    `gorm:"type:varchar(200);not null" json:"title"`
	Content      string    `gorm:"type:text" json:"content"`

	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
