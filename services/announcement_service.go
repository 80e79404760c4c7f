package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/codelearn-api/model"
	"gorm.io/gorm"
)

// AnnouncementService manages course announcements
type AnnouncementService struct {
	db      *gorm.DB
	catalog *CatalogService
}

// NewAnnouncementService creates an announcement service
func NewAnnouncementService(db *gorm.DB, catalog *CatalogService) *AnnouncementService {
	return &AnnouncementService{db: db, catalog: catalog}
}

// AnnouncementInput is the body of an announcement
type AnnouncementInput struct {
	Title   string `json:"title" validate:"required,min=3,max=200"`
	Content string `json:"content" validate:"required,max=10000"`
}

// AnnouncementFilter narrows the announcement feed
type AnnouncementFilter struct {
	CourseSlug    string
	PublishedOnly bool
	Limit         int
}

// Create posts an announcement to a course the actor may edit
func (s *AnnouncementService) Create(ctx context.Context, actor *model.User, courseID uint, in AnnouncementInput) (*model.Announcement, error) {
	course, err := s.catalog.editableCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	a := &model.Announcement{
		CourseID:     course.ID,
		InstructorID: actor.ID,
		Title:        strings.TrimSpace(in.Title),
		Content:      strings.TrimSpace(in.Content),
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}
	return a, nil
}

// Update edits an announcement
func (s *AnnouncementService) Update(ctx context.Context, actor *model.User, id uint, in AnnouncementInput) (*model.Announcement, error) {
	a, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	a.Title = strings.TrimSpace(in.Title)
	a.Content = strings.TrimSpace(in.Content)
	if err := s.db.WithContext(ctx).Model(a).Updates(map[string]interface{}{
		"title":   a.Title,
		"content": a.Content,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update announcement: %w", err)
	}
	return a, nil
}

// Delete removes an announcement
func (s *AnnouncementService) Delete(ctx context.Context, actor *model.User, id uint) error {
	a, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(a).Error; err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	return nil
}

func (s *AnnouncementService) editable(ctx context.Context, actor *model.User, id uint) (*model.Announcement, error) {
	var a model.Announcement
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch announcement: %w", err)
	}
	if _, err := s.catalog.editableCourse(ctx, actor, a.CourseID); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns recent announcements, newest first
func (s *AnnouncementService) List(ctx context.Context, f AnnouncementFilter) ([]model.Announcement, error) {
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Announcement{}).
		Joins("JOIN courses ON courses.id = announcements.course_id AND courses.deleted_at IS NULL")
	if f.PublishedOnly {
		query = query.Where("courses.is_published = ?", true)
	}
	if f.CourseSlug != "" {
		query = query.Where("courses.slug = ?", f.CourseSlug)
	}

	var announcements []model.Announcement
	err := query.
		Preload("Course", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "slug") }).
		Order("announcements.created_at DESC, announcements.id DESC").
		Limit(f.Limit).
		Find(&announcements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch announcements: %w", err)
	}
	return announcements, nil
}
