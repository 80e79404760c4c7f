package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/auth"
	applog "github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	applog.L().Info("starting database seeding")

	// Order respects foreign keys
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	if err := s.SeedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}

	if err := s.SeedPaymentConfig(); err != nil {
		return fmt.Errorf("failed to seed payment config: %w", err)
	}

	applog.L().Info("database seeding completed")
	return nil
}

// SeedAdminUser creates the default admin user from ADMIN_EMAIL and ADMIN_PASSWORD
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		applog.L().Info("admin user already exists, skipping")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		applog.L().Warn("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        strings.ToLower(adminEmail),
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	applog.L().Info("created admin user", "email", admin.Email)
	return nil
}

// SeedCategories creates the browsing categories
func (s *Seeder) SeedCategories() error {
	var count int64
	if err := s.db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		applog.L().Info("categories already exist, skipping")
		return nil
	}

	categories := []model.Category{
		{Name: "Web Development", Slug: "web-development", Icon: "fa-code", IsActive: true,
			Description: "Frontend, backend and full stack web engineering"},
		{Name: "Data Science", Slug: "data-science", Icon: "fa-chart-line", IsActive: true,
			Description: "Statistics, machine learning and data analysis"},
		{Name: "Mobile Development", Slug: "mobile-development", Icon: "fa-mobile-alt", IsActive: true,
			Description: "Android, iOS and cross platform apps"},
		{Name: "DevOps", Slug: "devops", Icon: "fa-server", IsActive: true,
			Description: "Cloud infrastructure, CI/CD and observability"},
	}

	if err := s.db.Create(&categories).Error; err != nil {
		return err
	}

	applog.L().Info("created categories", "count", len(categories))
	return nil
}

type seedCourse struct {
	title    string
	slug     string
	category string
	level    model.CourseLevel
	price    string
	discount string
	featured bool
	sections []seedSection
}

type seedSection struct {
	title    string
	lectures []string
}

// SeedCourses creates a small published catalog owned by the admin user
func (s *Seeder) SeedCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		applog.L().Info("courses already exist, skipping")
		return nil
	}

	var owner model.User
	if err := s.db.Where("role = ?", model.RoleAdmin).Order("id").First(&owner).Error; err != nil {
		applog.L().Warn("no admin user to own seeded courses, skipping")
		return nil
	}

	courses := []seedCourse{
		{
			title: "Go for Backend Engineers", slug: "go-for-backend-engineers", category: "web-development",
			level: model.CourseLevelIntermediate, price: "2999", discount: "1499", featured: true,
			sections: []seedSection{
				{"Foundations", []string{"Tooling and modules", "Types and interfaces", "Errors as values"}},
				{"Services", []string{"HTTP with fiber", "Persistence with gorm", "Background jobs"}},
			},
		},
		{
			title: "Practical SQL", slug: "practical-sql", category: "data-science",
			level: model.CourseLevelBeginner, price: "999",
			sections: []seedSection{
				{"Querying", []string{"SELECT and WHERE", "Joins", "Aggregates"}},
			},
		},
		{
			title: "Git Essentials", slug: "git-essentials", category: "devops",
			level: model.CourseLevelBeginner, price: "0",
			sections: []seedSection{
				{"Basics", []string{"Commits", "Branches", "Remotes"}},
			},
		},
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, sc := range courses {
			var category model.Category
			if err := tx.Where("slug = ?", sc.category).First(&category).Error; err != nil {
				return fmt.Errorf("category %s: %w", sc.category, err)
			}

			course := model.Course{
				Title:            sc.title,
				Slug:             sc.slug,
				InstructorID:     owner.ID,
				CategoryID:       &category.ID,
				ShortDescription: sc.title + " from first principles",
				Price:            decimal.RequireFromString(sc.price),
				Level:            sc.level,
				Language:         "English",
				IsPublished:      true,
				IsFeatured:       sc.featured,
			}
			if sc.discount != "" {
				course.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(sc.discount))
			}
			if err := tx.Create(&course).Error; err != nil {
				return err
			}

			total := 0
			for si, ss := range sc.sections {
				position := si + 1
				section := model.Section{CourseID: course.ID, Title: ss.title, Position: position}
				if err := tx.Create(&section).Error; err != nil {
					return err
				}
				for i, lt := range ss.lectures {
					lecture := model.Lecture{
						SectionID:       section.ID,
						Title:           lt,
						DurationMinutes: 12,
						Position:        i + 1,
						IsPreview:       position == 1 && i == 0,
					}
					if err := tx.Create(&lecture).Error; err != nil {
						return err
					}
					total++
				}
			}

			if err := tx.Model(&course).Update("total_lectures", total).Error; err != nil {
				return err
			}
			applog.L().Info("created course", "slug", course.Slug, "lectures", total)
		}
		return nil
	})
}

// SeedCoupons creates a launch coupon
func (s *Seeder) SeedCoupons() error {
	var count int64
	if err := s.db.Model(&model.Coupon{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		applog.L().Info("coupons already exist, skipping")
		return nil
	}

	now := time.Now().UTC()
	coupons := []model.Coupon{
		{
			Code:          "WELCOME20",
			Description:   "20% off your first order",
			DiscountType:  model.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(20),
			ValidFrom:     now,
			ValidUntil:    now.AddDate(0, 3, 0),
			UsageLimit:    500,
			IsActive:      true,
		},
		{
			Code:          "FLAT500",
			Description:   "₹500 off any order",
			DiscountType:  model.DiscountTypeFixed,
			DiscountValue: decimal.NewFromInt(500),
			ValidFrom:     now,
			ValidUntil:    now.AddDate(0, 1, 0),
			IsActive:      true,
		},
	}

	if err := s.db.Create(&coupons).Error; err != nil {
		return err
	}

	applog.L().Info("created coupons", "count", len(coupons))
	return nil
}

// SeedPaymentConfig creates the singleton payment settings row
func (s *Seeder) SeedPaymentConfig() error {
	var count int64
	if err := s.db.Model(&model.PaymentConfig{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		applog.L().Info("payment config already exists, skipping")
		return nil
	}

	cfg := model.PaymentConfig{
		UPIID:            os.Getenv("SEED_UPI_ID"),
		RazorpayKeyID:    os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayTestMode: true,
	}
	if err := s.db.Create(&cfg).Error; err != nil {
		return err
	}

	applog.L().Info("created payment config")
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
