package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OverviewStats is the admin dashboard summary
type OverviewStats struct {
	TotalUsers          int64           `json:"total_users"`
	TotalInstructors    int64           `json:"total_instructors"`
	PublishedCourses    int64           `json:"published_courses"`
	TotalEnrollments    int64           `json:"total_enrollments"`
	CompletedOrders     int64           `json:"completed_orders"`
	PendingReviews      int64           `json:"pending_payment_reviews"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	RevenueLast30Days   decimal.Decimal `json:"revenue_last_30_days"`
	NewUsersLast30Days  int64           `json:"new_users_last_30_days"`
	CertificatesIssued  int64           `json:"certificates_issued"`
	OpenCallbackRequest int64           `json:"open_callback_requests"`
}

// GetOverviewAnalytics retrieves marketplace-wide statistics
// GET /admin/analytics/overview
func GetOverviewAnalytics(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB().WithContext(c.UserContext())
	since := time.Now().UTC().AddDate(0, 0, -30)

	var stats OverviewStats
	db.Model(&model.User{}).Count(&stats.TotalUsers)
	db.Model(&model.User{}).Where("role = ?", model.RoleInstructor).Count(&stats.TotalInstructors)
	db.Model(&model.User{}).Where("created_at >= ?", since).Count(&stats.NewUsersLast30Days)
	db.Model(&model.Course{}).Where("is_published = ?", true).Count(&stats.PublishedCourses)
	db.Model(&model.Enrollment{}).Count(&stats.TotalEnrollments)
	db.Model(&model.Certificate{}).Count(&stats.CertificatesIssued)
	db.Model(&model.CallbackRequest{}).Where("status = ?", "new").Count(&stats.OpenCallbackRequest)
	db.Model(&model.Order{}).Where("payment_status = ?", model.PaymentStatusCompleted).Count(&stats.CompletedOrders)
	db.Model(&model.PaymentTransaction{}).
		Where("status = ? AND payment_method = ?", model.TransactionStatusPending, model.PaymentMethodUPI).
		Count(&stats.PendingReviews)

	revenue := func() *gorm.DB {
		return db.Model(&model.Order{}).
			Where("payment_status = ?", model.PaymentStatusCompleted).
			Select("COALESCE(SUM(final_amount), 0)")
	}
	if err := revenue().Scan(&stats.TotalRevenue).Error; err != nil {
		return err
	}
	if err := revenue().Where("created_at >= ?", since).Scan(&stats.RevenueLast30Days).Error; err != nil {
		return err
	}

	return response.Success(c, stats)
}
