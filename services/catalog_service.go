package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const courseCacheTTL = 10 * time.Minute

// JSONCache is the subset of the Redis cache the catalog needs
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CatalogService reads and writes the course catalog
type CatalogService struct {
	db    *gorm.DB
	cache JSONCache
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(db *gorm.DB, cache JSONCache) *CatalogService {
	return &CatalogService{db: db, cache: cache}
}

// CourseFilter narrows the public course list
type CourseFilter struct {
	Level    string
	Category string // category slug
	Price    string // free, paid
	Featured bool
	Query    string
	Page     int
	Limit    int
}

// CourseInput is the writable part of a course
type CourseInput struct {
	Title               string            `json:"title" validate:"required,min=3,max=200"`
	Slug                string            `json:"slug" validate:"omitempty,max=200"`
	CategoryID          *uint             `json:"category_id"`
	ShortDescription    string            `json:"short_description" validate:"max=300"`
	DetailedDescription string            `json:"detailed_description"`
	ThumbnailURL        string            `json:"thumbnail_url" validate:"omitempty,url"`
	PreviewVideoURL     string            `json:"preview_video_url" validate:"omitempty,url"`
	Price               decimal.Decimal   `json:"price"`
	DiscountPrice       *decimal.Decimal  `json:"discount_price"`
	Level               model.CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Language            string            `json:"language" validate:"max=50"`
	DurationHours       int               `json:"duration_hours" validate:"gte=0"`
	Requirements        string            `json:"requirements"`
	WhatYouWillLearn    string            `json:"what_you_will_learn"`
	IsPublished         bool              `json:"is_published"`
	IsFeatured          bool              `json:"is_featured"`
	InstructorID        *uint             `json:"instructor_id,omitempty"` // admin only
}

// SectionInput is the writable part of a section
type SectionInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Position    int    `json:"position" validate:"gte=0"`
}

// LectureInput is the writable part of a lecture
type LectureInput struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
	Position        int    `json:"position" validate:"gte=0"`
	IsPreview       bool   `json:"is_preview"`
	ResourceURL     string `json:"resource_url" validate:"omitempty,url"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases title and collapses every run of non alphanumerics into "-"
func Slugify(title string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func courseCacheKey(slug string) string {
	return "catalog:course:" + slug
}

// ListCourses returns published courses, newest first
func (s *CatalogService) ListCourses(ctx context.Context, f CourseFilter) ([]model.Course, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 12
	}

	query := s.db.WithContext(ctx).Model(&model.Course{}).Where("courses.is_published = ?", true)

	if f.Level != "" {
		query = query.Where("courses.level = ?", f.Level)
	}
	if f.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = courses.category_id").
			Where("categories.slug = ?", f.Category)
	}
	switch f.Price {
	case "free":
		query = query.Where("courses.price = 0")
	case "paid":
		query = query.Where("courses.price > 0")
	}
	if f.Featured {
		query = query.Where("courses.is_featured = ?", true)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(courses.title) LIKE ? OR LOWER(courses.short_description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	var courses []model.Course
	err := query.
		Preload("Category").
		Preload("Instructor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("courses.created_at DESC, courses.id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&courses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch courses: %w", err)
	}

	return courses, total, nil
}

// GetCourse returns a published course with its ordered outline
func (s *CatalogService) GetCourse(ctx context.Context, slug string) (*model.Course, error) {
	key := courseCacheKey(slug)
	if s.cache != nil {
		var cached model.Course
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	var course model.Course
	err := s.outline(s.db.WithContext(ctx)).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, &course, courseCacheTTL); err != nil {
			logger.L().Warn("failed to cache course", "slug", slug, "error", err)
		}
	}
	return &course, nil
}

// GetCourseByID loads any course, published or not, without its outline
func (s *CatalogService) GetCourseByID(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}
	return &course, nil
}

// ListCategories returns active categories by name
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

// InstructorCourses lists every course the actor may edit
func (s *CatalogService) InstructorCourses(ctx context.Context, actor *model.User) ([]model.Course, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if !actor.IsAdmin() {
		query = query.Where("instructor_id = ?", actor.ID)
	}

	var courses []model.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}
	return courses, nil
}

// CreateCourse adds a course owned by actor, or by InstructorID when an admin sets it
func (s *CatalogService) CreateCourse(ctx context.Context, actor *model.User, in CourseInput) (*model.Course, error) {
	if !actor.CanTeach() {
		return nil, ErrForbidden
	}
	if err := validateCoursePrice(in.Price, in.DiscountPrice); err != nil {
		return nil, err
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Title)
	} else {
		slug = Slugify(slug)
	}
	if slug == "" {
		return nil, newValidationError("slug", "slug cannot be empty")
	}

	ownerID := actor.ID
	if actor.IsAdmin() && in.InstructorID != nil {
		ownerID = *in.InstructorID
	}

	course := &model.Course{
		Slug:         slug,
		InstructorID: ownerID,
	}
	applyCourseInput(course, in)

	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: a course with slug %q already exists", ErrConflict, slug)
		}
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	logger.L().Info("course created", "course_id", course.ID, "slug", slug, "instructor_id", ownerID)
	return course, nil
}

// UpdateCourse replaces the writable fields of a course
func (s *CatalogService) UpdateCourse(ctx context.Context, actor *model.User, id uint, in CourseInput) (*model.Course, error) {
	course, err := s.editableCourse(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateCoursePrice(in.Price, in.DiscountPrice); err != nil {
		return nil, err
	}

	oldSlug := course.Slug
	if in.Slug != "" {
		course.Slug = Slugify(in.Slug)
	}
	applyCourseInput(course, in)

	err = s.db.WithContext(ctx).Model(course).Select(
		"title", "slug", "category_id", "short_description", "detailed_description", "thumbnail_url",
		"preview_video_url", "price", "discount_price", "level", "language", "duration_hours",
		"requirements", "what_you_will_learn", "is_published", "is_featured",
	).Updates(course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: a course with slug %q already exists", ErrConflict, course.Slug)
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.invalidate(ctx, oldSlug, course.Slug)
	return course, nil
}

// DeleteCourse soft deletes a course
func (s *CatalogService) DeleteCourse(ctx context.Context, actor *model.User, id uint) error {
	course, err := s.editableCourse(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(course).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	s.invalidate(ctx, course.Slug)
	return nil
}

// AddSection appends a section to a course
func (s *CatalogService) AddSection(ctx context.Context, actor *model.User, courseID uint, in SectionInput) (*model.Section, error) {
	course, err := s.editableCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	section := &model.Section{
		CourseID:    course.ID,
		Title:       in.Title,
		Description: in.Description,
		Position:    in.Position,
	}
	if err := s.db.WithContext(ctx).Create(section).Error; err != nil {
		return nil, fmt.Errorf("failed to create section: %w", err)
	}

	s.invalidate(ctx, course.Slug)
	return section, nil
}

// AddLecture appends a lecture and recomputes the course's lecture count
func (s *CatalogService) AddLecture(ctx context.Context, actor *model.User, sectionID uint, in LectureInput) (*model.Lecture, error) {
	var section model.Section
	if err := s.db.WithContext(ctx).First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch section: %w", err)
	}
	course, err := s.editableCourse(ctx, actor, section.CourseID)
	if err != nil {
		return nil, err
	}

	lecture := &model.Lecture{
		SectionID:       section.ID,
		Title:           in.Title,
		Description:     in.Description,
		VideoURL:        in.VideoURL,
		DurationMinutes: in.DurationMinutes,
		Position:        in.Position,
		IsPreview:       in.IsPreview,
		ResourceURL:     in.ResourceURL,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lecture).Error; err != nil {
			return fmt.Errorf("failed to create lecture: %w", err)
		}
		return recountLectures(tx, course.ID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, course.Slug)
	return lecture, nil
}

// DeleteLecture removes a lecture and recomputes the course's lecture count
func (s *CatalogService) DeleteLecture(ctx context.Context, actor *model.User, lectureID uint) error {
	var lecture model.Lecture
	if err := s.db.WithContext(ctx).Preload("Section").First(&lecture, lectureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch lecture: %w", err)
	}
	course, err := s.editableCourse(ctx, actor, lecture.Section.CourseID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&lecture).Error; err != nil {
			return fmt.Errorf("failed to delete lecture: %w", err)
		}
		return recountLectures(tx, course.ID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, course.Slug)
	return nil
}

func (s *CatalogService) editableCourse(ctx context.Context, actor *model.User, id uint) (*model.Course, error) {
	course, err := s.GetCourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && course.InstructorID != actor.ID {
		return nil, ErrForbidden
	}
	return course, nil
}

func (s *CatalogService) outline(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Instructor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Sections.Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") })
}

func (s *CatalogService) invalidate(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		keys = append(keys, courseCacheKey(slug))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.L().Warn("failed to invalidate course cache", "slugs", slugs, "error", err)
	}
}

func recountLectures(tx *gorm.DB, courseID uint) error {
	var total int64
	err := tx.Model(&model.Lecture{}).
		Joins("JOIN sections ON sections.id = lectures.section_id").
		Where("sections.course_id = ?", courseID).
		Count(&total).Error
	if err != nil {
		return fmt.Errorf("failed to count lectures: %w", err)
	}
	return tx.Model(&model.Course{}).Where("id = ?", courseID).Update("total_lectures", total).Error
}

func validateCoursePrice(price decimal.Decimal, discount *decimal.Decimal) error {
	if price.IsNegative() {
		return newValidationError("price", "price cannot be negative")
	}
	if discount != nil {
		if discount.IsNegative() {
			return newValidationError("discount_price", "discount price cannot be negative")
		}
		if discount.GreaterThanOrEqual(price) {
			return newValidationError("discount_price", "discount price must be lower than price")
		}
	}
	return nil
}

func applyCourseInput(course *model.Course, in CourseInput) {
	course.Title = in.Title
	course.CategoryID = in.CategoryID
	course.ShortDescription = in.ShortDescription
	course.DetailedDescription = in.DetailedDescription
	course.ThumbnailURL = in.ThumbnailURL
	course.PreviewVideoURL = in.PreviewVideoURL
	course.Price = in.Price.Round(2)
	course.DiscountPrice = decimal.NullDecimal{}
	if in.DiscountPrice != nil {
		course.DiscountPrice = decimal.NewNullDecimal(in.DiscountPrice.Round(2))
	}
	course.Level = in.Level
	if course.Level == "" {
		course.Level = model.CourseLevelBeginner
	}
	course.Language = in.Language
	if course.Language == "" {
		course.Language = "English"
	}
	course.DurationHours = in.DurationHours
	course.Requirements = in.Requirements
	course.WhatYouWillLearn = in.WhatYouWillLearn
	course.IsPublished = in.IsPublished
	course.IsFeatured = in.IsFeatured
}
