package database

import "github.com/sahilchouksey/codelearn-api/model"

// Models lists every table managed by AutoMigrate, in dependency order
func Models() []interface{} {
	return []interface{}{
		// User-related models
		&model.User{},
		&model.UserProfile{},
		&model.TwoFactorAuth{},
		&model.PasswordResetToken{},
		&model.RevokedToken{},

		// Catalog
		&model.Category{},
		&model.Course{},
		&model.Section{},
		&model.Lecture{},
		&model.Announcement{},

		// Enrollment ledger
		&model.Enrollment{},
		&model.LectureProgress{},
		&model.Wishlist{},
		&model.Certificate{},
		&model.LiveSession{},
		&model.Review{},

		// Cart, coupons, orders and payments
		&model.Cart{},
		&model.CartItem{},
		&model.Coupon{},
		&model.Order{},
		&model.OrderItem{},
		&model.PaymentTransaction{},
		&model.Invoice{},
		&model.PaymentConfig{},

		// Messaging
		&model.CallbackRequest{},
		&model.OutboxEvent{},
		&model.UserNotification{},

		// Audit & logging models
		&model.CronJobLog{},
		&model.AdminAuditLog{},
	}
}
