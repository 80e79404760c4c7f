package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/generator"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentService owns enrollments, lecture progress, wishlists,
// certificates and live sessions
type EnrollmentService struct {
	db      *gorm.DB
	catalog *CatalogService
	now     func() time.Time
}

// NewEnrollmentService creates an enrollment service
func NewEnrollmentService(db *gorm.DB, catalog *CatalogService) *EnrollmentService {
	return &EnrollmentService{
		db:      db,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ProgressInput reports watch progress on one lecture
type ProgressInput struct {
	LectureID      uint `json:"lecture_id" validate:"required"`
	Completed      bool `json:"completed"`
	WatchedSeconds int  `json:"watched_seconds" validate:"gte=0"`
}

// ProgressResult is the enrollment state after a progress update
type ProgressResult struct {
	Enrollment  *model.Enrollment      `json:"enrollment"`
	Lecture     *model.LectureProgress `json:"lecture_progress"`
	Certificate *model.Certificate     `json:"certificate,omitempty"`
}

// PlayerView is a course outline with the learner's completed lectures
type PlayerView struct {
	Course              *model.Course     `json:"course"`
	Enrollment          *model.Enrollment `json:"enrollment"`
	CompletedLectureIDs []uint            `json:"completed_lecture_ids"`
}

// LiveSessionInput schedules a live class
type LiveSessionInput struct {
	CourseID        uint      `json:"course_id" validate:"required"`
	Title           string    `json:"title" validate:"required,min=3,max=200"`
	Description     string    `json:"description" validate:"max=2000"`
	MeetingURL      string    `json:"meeting_url" validate:"required,url,max=500"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=5,max=600"`
}

// EnrollFree enrolls the user in a free course without an order
func (s *EnrollmentService) EnrollFree(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.Where("id = ? AND is_published = ?", courseID, true).First(&course).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch course: %w", err)
		}
		if !course.IsFree() {
			return newValidationError("course_id", "course is not free")
		}

		created, err := grantEnrollment(tx, userID, courseID, s.now())
		if err != nil {
			return err
		}
		if !created {
			return ErrAlreadyEnrolled
		}
		return tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	})
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// UpdateProgress records lecture progress and recomputes the course progress.
// Completing the last lecture completes the enrollment and issues the certificate;
// both stay earned if a lecture is later marked incomplete.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, userID uint, in ProgressInput) (*ProgressResult, error) {
	result := &ProgressResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lecture model.Lecture
		if err := tx.Preload("Section").First(&lecture, in.LectureID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch lecture: %w", err)
		}
		courseID := lecture.Section.CourseID

		var enrollment model.Enrollment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&enrollment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEnrolled
			}
			return fmt.Errorf("failed to fetch enrollment: %w", err)
		}

		now := s.now()
		progress := model.LectureProgress{EnrollmentID: enrollment.ID, LectureID: lecture.ID}
		err = tx.Where(model.LectureProgress{EnrollmentID: enrollment.ID, LectureID: lecture.ID}).
			FirstOrCreate(&progress).Error
		if err != nil {
			return fmt.Errorf("failed to load lecture progress: %w", err)
		}

		// completed_at keeps the first completion across un-completes
		progress.IsCompleted = in.Completed
		if in.Completed && progress.CompletedAt == nil {
			progress.CompletedAt = &now
		}
		if in.WatchedSeconds > progress.WatchedDuration {
			progress.WatchedDuration = in.WatchedSeconds
		}
		if err := tx.Save(&progress).Error; err != nil {
			return fmt.Errorf("failed to save lecture progress: %w", err)
		}

		pct, done, err := courseProgress(tx, enrollment.ID, courseID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"progress_percentage": pct,
			"last_accessed_at":    now,
		}
		enrollment.ProgressPercentage = pct
		enrollment.LastAccessedAt = now
		if done && !enrollment.IsCompleted {
			updates["is_completed"] = true
			updates["completion_date"] = now
			enrollment.IsCompleted = true
			enrollment.CompletionDate = &now
		}
		if err := tx.Model(&enrollment).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update enrollment: %w", err)
		}

		if enrollment.IsCompleted {
			cert, err := issueCertificate(tx, userID, courseID, now)
			if err != nil {
				return err
			}
			result.Certificate = cert
		}

		result.Enrollment = &enrollment
		result.Lecture = &progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// courseProgress returns the completed share of the course's lectures as a
// percentage with two decimals, and whether every lecture is complete. A
// course without lectures is at 0 and never complete.
func courseProgress(tx *gorm.DB, enrollmentID, courseID uint) (decimal.Decimal, bool, error) {
	lectureIDs := tx.Session(&gorm.Session{NewDB: true}).
		Model(&model.Lecture{}).
		Select("lectures.id").
		Joins("JOIN sections ON sections.id = lectures.section_id").
		Where("sections.course_id = ?", courseID)

	var total int64
	err := tx.Model(&model.Lecture{}).
		Joins("JOIN sections ON sections.id = lectures.section_id").
		Where("sections.course_id = ?", courseID).
		Count(&total).Error
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to count lectures: %w", err)
	}
	if total == 0 {
		return decimal.Zero, false, nil
	}

	var completed int64
	err = tx.Model(&model.LectureProgress{}).
		Where("enrollment_id = ? AND is_completed = ? AND lecture_id IN (?)", enrollmentID, true, lectureIDs).
		Count(&completed).Error
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to count completed lectures: %w", err)
	}

	pct := decimal.NewFromInt(completed).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total)).Round(2)
	return pct, completed >= total, nil
}

// issueCertificate returns the user's certificate for the course, creating it once
func issueCertificate(tx *gorm.DB, userID, courseID uint, now time.Time) (*model.Certificate, error) {
	cert := model.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		CertificateNumber: generator.CertificateNumber(now),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&cert).Error
	if err != nil {
		return nil, fmt.Errorf("failed to issue certificate: %w", err)
	}

	var issued model.Certificate
	if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&issued).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch certificate: %w", err)
	}
	return &issued, nil
}

// MyLearning lists the user's enrollments, newest first
func (s *EnrollmentService) MyLearning(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course").
		Preload("Course.Instructor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC, id DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enrollments: %w", err)
	}
	return enrollments, nil
}

// Player returns the course outline for an enrolled user
func (s *EnrollmentService) Player(ctx context.Context, userID uint, slug string) (*PlayerView, error) {
	db := s.db.WithContext(ctx)

	var course model.Course
	if err := s.catalog.outline(db).Where("slug = ?", slug).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}

	var enrollment model.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, course.ID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to fetch enrollment: %w", err)
	}

	completed := []uint{}
	err := db.Model(&model.LectureProgress{}).
		Where("enrollment_id = ? AND is_completed = ?", enrollment.ID, true).
		Order("lecture_id").
		Pluck("lecture_id", &completed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress: %w", err)
	}

	now := s.now()
	if err := db.Model(&enrollment).UpdateColumn("last_accessed_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to update last access: %w", err)
	}
	enrollment.LastAccessedAt = now

	return &PlayerView{Course: &course, Enrollment: &enrollment, CompletedLectureIDs: completed}, nil
}

// AddToWishlist bookmarks a course. Adding it twice returns the existing entry.
func (s *EnrollmentService) AddToWishlist(ctx context.Context, userID, courseID uint) (*model.Wishlist, error) {
	var item model.Wishlist
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Course{}).Where("id = ? AND is_published = ?", courseID, true).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to fetch course: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}

		enrolled, err := isEnrolled(tx, userID, courseID)
		if err != nil {
			return err
		}
		if enrolled {
			return ErrAlreadyEnrolled
		}

		item = model.Wishlist{UserID: userID, CourseID: courseID}
		return tx.Where(model.Wishlist{UserID: userID, CourseID: courseID}).FirstOrCreate(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveFromWishlist drops a bookmarked course
func (s *EnrollmentService) RemoveFromWishlist(ctx context.Context, userID, courseID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&model.Wishlist{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Wishlist lists bookmarked courses, newest first
func (s *EnrollmentService) Wishlist(ctx context.Context, userID uint) ([]model.Wishlist, error) {
	var items []model.Wishlist
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course").
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wishlist: %w", err)
	}
	return items, nil
}

// Certificates lists the user's certificates
func (s *EnrollmentService) Certificates(ctx context.Context, userID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course").
		Order("created_at DESC").
		Find(&certs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch certificates: %w", err)
	}
	return certs, nil
}

// Certificate returns one of the user's certificates
func (s *EnrollmentService) Certificate(ctx context.Context, userID, id uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Preload("Course").First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch certificate: %w", err)
	}
	return &cert, nil
}

// UpcomingSessions returns live sessions of the user's courses starting in [from, to)
func (s *EnrollmentService) UpcomingSessions(ctx context.Context, userID uint, from, to time.Time) ([]model.LiveSession, error) {
	enrolled := s.db.Model(&model.Enrollment{}).Select("course_id").Where("user_id = ?", userID)

	var sessions []model.LiveSession
	err := s.db.WithContext(ctx).
		Where("course_id IN (?) AND starts_at >= ? AND starts_at < ?", enrolled, from, to).
		Preload("Course").
		Order("starts_at").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live sessions: %w", err)
	}
	return sessions, nil
}

// CreateLiveSession schedules a class for a course
func (s *EnrollmentService) CreateLiveSession(ctx context.Context, actor *model.User, in LiveSessionInput) (*model.LiveSession, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Course{}).Where("id = ?", in.CourseID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = 60
	}
	session := &model.LiveSession{
		CourseID:        in.CourseID,
		Title:           in.Title,
		Description:     in.Description,
		MeetingURL:      in.MeetingURL,
		StartsAt:        in.StartsAt.UTC(),
		DurationMinutes: duration,
		CreatedBy:       actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create live session: %w", err)
	}
	return session, nil
}

// DeleteLiveSession cancels a scheduled class
func (s *EnrollmentService) DeleteLiveSession(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.LiveSession{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete live session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLiveSessions returns every session starting at or after from
func (s *EnrollmentService) ListLiveSessions(ctx context.Context, from time.Time) ([]model.LiveSession, error) {
	var sessions []model.LiveSession
	err := s.db.WithContext(ctx).
		Where("starts_at >= ?", from).
		Preload("Course", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "slug") }).
		Order("starts_at").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live sessions: %w", err)
	}
	return sessions, nil
}
