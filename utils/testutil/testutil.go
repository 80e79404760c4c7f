// Package testutil opens throwaway SQLite databases with the full schema and
// seeds the rows most service tests need.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/auth"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var seq atomic.Int64

func nextSeq() int64 { return seq.Add(1) }

// NewDB returns a migrated database file under t.TempDir
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	// Keep password hashing fast in tests
	auth.Cost = 4

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(database.Models()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given role and password "password123"
func CreateUser(t testing.TB, db *gorm.DB, email, role string) *model.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test " + role,
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CourseOpts describes a course to seed
type CourseOpts struct {
	Title         string
	Price         string
	DiscountPrice string
	Lectures      int
	Unpublished   bool
	InstructorID  uint
}

// CreateCourse inserts a course with one section holding opts.Lectures lectures
func CreateCourse(t testing.TB, db *gorm.DB, opts CourseOpts) *model.Course {
	t.Helper()

	if opts.InstructorID == 0 {
		instructor := CreateUser(t, db, fmt.Sprintf("instructor-%d@example.com", nextSeq()), model.RoleInstructor)
		opts.InstructorID = instructor.ID
	}
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("Course %d", nextSeq())
	}
	if opts.Price == "" {
		opts.Price = "0"
	}

	course := &model.Course{
		Title:         opts.Title,
		Slug:          fmt.Sprintf("course-%d", nextSeq()),
		InstructorID:  opts.InstructorID,
		Price:         decimal.RequireFromString(opts.Price),
		Level:         model.CourseLevelBeginner,
		Language:      "English",
		IsPublished:   !opts.Unpublished,
		TotalLectures: opts.Lectures,
	}
	if opts.DiscountPrice != "" {
		course.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(opts.DiscountPrice))
	}
	require.NoError(t, db.Create(course).Error)

	if opts.Lectures > 0 {
		section := &model.Section{CourseID: course.ID, Title: "Getting started", Position: 1}
		require.NoError(t, db.Create(section).Error)
		for i := 1; i <= opts.Lectures; i++ {
			lecture := &model.Lecture{
				SectionID:       section.ID,
				Title:           fmt.Sprintf("Lecture %d", i),
				DurationMinutes: 10,
				Position:        i,
			}
			require.NoError(t, db.Create(lecture).Error)
		}
	}
	return course
}

// Lectures returns the lecture ids of a course in order
func Lectures(t testing.TB, db *gorm.DB, courseID uint) []uint {
	t.Helper()

	var ids []uint
	require.NoError(t, db.Model(&model.Lecture{}).
		Joins("JOIN sections ON sections.id = lectures.section_id").
		Where("sections.course_id = ?", courseID).
		Order("sections.position, lectures.position").
		Pluck("lectures.id", &ids).Error)
	return ids
}

// CouponOpts describes a coupon to seed
type CouponOpts struct {
	Code       string
	Type       model.DiscountType
	Value      string
	ValidFrom  time.Time
	ValidUntil time.Time
	UsageLimit int
	UsedCount  int
	Inactive   bool
}

// CreateCoupon inserts a coupon valid from an hour ago for a day unless a window is set
func CreateCoupon(t testing.TB, db *gorm.DB, opts CouponOpts) *model.Coupon {
	t.Helper()

	now := time.Now().UTC()
	if opts.ValidFrom.IsZero() {
		opts.ValidFrom = now.Add(-time.Hour)
	}
	if opts.ValidUntil.IsZero() {
		opts.ValidUntil = now.Add(24 * time.Hour)
	}
	if opts.Type == "" {
		opts.Type = model.DiscountTypePercentage
	}

	coupon := &model.Coupon{
		Code:          opts.Code,
		DiscountType:  opts.Type,
		DiscountValue: decimal.RequireFromString(opts.Value),
		ValidFrom:     opts.ValidFrom,
		ValidUntil:    opts.ValidUntil,
		UsageLimit:    opts.UsageLimit,
		UsedCount:     opts.UsedCount,
		IsActive:      true,
	}
	require.NoError(t, db.Create(coupon).Error)

	if opts.Inactive {
		require.NoError(t, db.Model(coupon).Update("is_active", false).Error)
		coupon.IsActive = false
	}
	return coupon
}

// Enroll inserts an enrollment directly
func Enroll(t testing.TB, db *gorm.DB, userID, courseID uint) *model.Enrollment {
	t.Helper()

	enrollment := &model.Enrollment{UserID: userID, CourseID: courseID, LastAccessedAt: time.Now().UTC()}
	require.NoError(t, db.Create(enrollment).Error)
	return enrollment
}

// Count returns the number of rows of model matching the optional condition
func Count(t testing.TB, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
