package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/codelearn-api/model"
	"gorm.io/gorm"
)

// Callback request statuses
const (
	CallbackStatusNew       = "new"
	CallbackStatusContacted = "contacted"
	CallbackStatusClosed    = "closed"
)

// CallbackService stores "call me back" requests and alerts the admins
type CallbackService struct {
	db     *gorm.DB
	outbox *Outbox
}

// NewCallbackService creates a callback service
func NewCallbackService(db *gorm.DB, outbox *Outbox) *CallbackService {
	return &CallbackService{db: db, outbox: outbox}
}

// CallbackInput is the public callback form
type CallbackInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"required,phone"`
	CourseID *uint  `json:"course_id"`
	Message  string `json:"message" validate:"max=2000"`
}

// Submit stores the request. The admin email is sent through the outbox.
func (s *CallbackService) Submit(ctx context.Context, in CallbackInput) (*model.CallbackRequest, error) {
	req := &model.CallbackRequest{
		Name:     strings.TrimSpace(in.Name),
		Email:    normalizeEmail(in.Email),
		Phone:    strings.TrimSpace(in.Phone),
		CourseID: in.CourseID,
		Message:  strings.TrimSpace(in.Message),
		Status:   CallbackStatusNew,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.CourseID != nil {
			var count int64
			if err := tx.Model(&model.Course{}).Where("id = ? AND is_published = ?", *in.CourseID, true).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to fetch course: %w", err)
			}
			if count == 0 {
				return newValidationError("course_id", "unknown course")
			}
		}

		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("failed to save callback request: %w", err)
		}
		_, err := s.outbox.Enqueue(tx, model.TopicCallbackRequest, fmt.Sprint(req.ID), CallbackEvent{CallbackRequestID: req.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.outbox.Nudge()
	return req, nil
}

// List returns callback requests for the admin inbox, newest first
func (s *CallbackService) List(ctx context.Context, status string, page, limit int) ([]model.CallbackRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.CallbackRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count callback requests: %w", err)
	}

	var requests []model.CallbackRequest
	err := query.
		Preload("Course", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "slug") }).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch callback requests: %w", err)
	}
	return requests, total, nil
}

// UpdateStatus moves a request through new, contacted and closed
func (s *CallbackService) UpdateStatus(ctx context.Context, id uint, status string) (*model.CallbackRequest, error) {
	switch status {
	case CallbackStatusNew, CallbackStatusContacted, CallbackStatusClosed:
	default:
		return nil, newValidationError("status", "status must be one of new, contacted, closed")
	}

	var req model.CallbackRequest
	if err := s.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch callback request: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&req).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update callback request: %w", err)
	}
	return &req, nil
}
