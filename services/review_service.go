package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReviewService manages course ratings
type ReviewService struct {
	db      *gorm.DB
	catalog *CatalogService
}

// NewReviewService creates a review service
func NewReviewService(db *gorm.DB, catalog *CatalogService) *ReviewService {
	return &ReviewService{db: db, catalog: catalog}
}

// ReviewInput is a rating with an optional comment
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Upsert creates the user's review of a course or replaces it
func (s *ReviewService) Upsert(ctx context.Context, userID, courseID uint, in ReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, newValidationError("rating", "rating must be between 1 and 5")
	}

	var (
		review model.Review
		slug   string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch course: %w", err)
		}
		slug = course.Slug

		enrolled, err := isEnrolled(tx, userID, courseID)
		if err != nil {
			return err
		}
		if !enrolled {
			return ErrNotEnrolled
		}

		err = tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&review).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = model.Review{
				UserID:     userID,
				CourseID:   courseID,
				Rating:     in.Rating,
				Comment:    strings.TrimSpace(in.Comment),
				IsApproved: true,
			}
			if err := tx.Create(&review).Error; err != nil {
				return fmt.Errorf("failed to create review: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to fetch review: %w", err)
		default:
			review.Rating = in.Rating
			review.Comment = strings.TrimSpace(in.Comment)
			if err := tx.Model(&review).Updates(map[string]interface{}{
				"rating":  review.Rating,
				"comment": review.Comment,
			}).Error; err != nil {
				return fmt.Errorf("failed to update review: %w", err)
			}
		}

		return recomputeRating(tx, courseID)
	})
	if err != nil {
		return nil, err
	}

	s.catalog.invalidate(ctx, slug)
	return &review, nil
}

// ListForCourse returns approved reviews, newest first
func (s *ReviewService) ListForCourse(ctx context.Context, courseID uint, page, limit int) ([]model.Review, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	query := s.db.WithContext(ctx).Model(&model.Review{}).Where("course_id = ? AND is_approved = ?", courseID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []model.Review
	err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}
	return reviews, total, nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *ReviewService) Delete(ctx context.Context, actor *model.User, reviewID uint) error {
	var slug string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review model.Review
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch review: %w", err)
		}
		if review.UserID != actor.ID && !actor.IsAdmin() {
			return ErrForbidden
		}
		if err := tx.Delete(&review).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		if err := tx.Model(&model.Course{}).Where("id = ?", review.CourseID).Pluck("slug", &slug).Error; err != nil {
			return fmt.Errorf("failed to fetch course: %w", err)
		}
		return recomputeRating(tx, review.CourseID)
	})
	if err != nil {
		return err
	}

	s.catalog.invalidate(ctx, slug)
	return nil
}

// recomputeRating sets the course average over approved reviews, 0 when there are none
func recomputeRating(tx *gorm.DB, courseID uint) error {
	var avg float64
	err := tx.Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0)").
		Where("course_id = ? AND is_approved = ?", courseID, true).
		Scan(&avg).Error
	if err != nil {
		return fmt.Errorf("failed to compute rating: %w", err)
	}

	err = tx.Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("average_rating", decimal.NewFromFloat(avg).Round(2)).Error
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	return nil
}
