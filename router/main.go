package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/handlers"
	admin_handlers "github.com/sahilchouksey/codelearn-api/handlers/admin"
	announcement_handlers "github.com/sahilchouksey/codelearn-api/handlers/announcement"
	auth_handlers "github.com/sahilchouksey/codelearn-api/handlers/auth"
	callback_handlers "github.com/sahilchouksey/codelearn-api/handlers/callback"
	cart_handlers "github.com/sahilchouksey/codelearn-api/handlers/cart"
	checkout_handlers "github.com/sahilchouksey/codelearn-api/handlers/checkout"
	course_handlers "github.com/sahilchouksey/codelearn-api/handlers/course"
	learning_handlers "github.com/sahilchouksey/codelearn-api/handlers/learning"
	notification_handlers "github.com/sahilchouksey/codelearn-api/handlers/notification"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/services/storage"
	"github.com/sahilchouksey/codelearn-api/utils"
	"github.com/sahilchouksey/codelearn-api/utils/auth"
	"github.com/sahilchouksey/codelearn-api/utils/middleware"
)

// Pinger reports whether a dependency is reachable
type Pinger = handlers.Pinger

// Deps carries everything the routes need. Redis and BruteForce may be nil.
type Deps struct {
	Store          database.Storage
	Redis          Pinger
	JWT            *auth.JWTManager
	Blacklist      *auth.BlacklistService
	BruteForce     *middleware.BruteForceProtection
	Proofs         storage.Storage
	AllowedOrigins string
	MetricsEnabled bool

	Auth          *services.AuthService
	TwoFactor     *services.TwoFactorService
	Catalog       *services.CatalogService
	Reviews       *services.ReviewService
	Enrollments   *services.EnrollmentService
	Carts         *services.CartService
	Coupons       *services.CouponService
	Orders        *services.OrderService
	Payments      *services.PaymentService
	Fulfillment   *services.FulfillmentService
	Invoices      *services.InvoiceService
	PaymentConfig *services.PaymentConfigService
	Notifications *services.NotificationService
	Announcements *services.AnnouncementService
	Callbacks     *services.CallbackService
}

func SetupRoutes(app *fiber.App, d Deps) {
	db := d.Store.GetDB()
	store := d.Store

	authMiddleware := middleware.NewAuthMiddleware(d.JWT, d.Blacklist, db)

	healthHandler := handlers.NewHealthHandler(store, d.Redis)
	authHandler := auth_handlers.NewAuthHandler(d.Auth, d.TwoFactor, d.JWT, d.Blacklist, d.BruteForce)
	courseHandler := course_handlers.NewCourseHandler(d.Catalog, d.Reviews)
	learningHandler := learning_handlers.NewLearningHandler(d.Enrollments)
	cartHandler := cart_handlers.NewCartHandler(d.Carts)
	checkoutHandler := checkout_handlers.NewCheckoutHandler(d.Payments, d.Orders, d.Invoices, d.PaymentConfig)
	notificationHandler := notification_handlers.NewNotificationHandler(d.Notifications)
	announcementHandler := announcement_handlers.NewAnnouncementHandler(d.Announcements)
	callbackHandler := callback_handlers.NewCallbackHandler(d.Callbacks)
	paymentsHandler := admin_handlers.NewPaymentsHandler(d.Orders, d.Fulfillment, d.Coupons, d.PaymentConfig, d.Proofs)
	adminCatalogHandler := admin_handlers.NewCatalogHandler(d.Coupons, d.Enrollments)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    d.AllowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	})

	if d.MetricsEnabled {
		app.Use(middleware.RequestMetrics())
		app.Get("/metrics", middleware.MetricsHandler())
	}

	// Health check endpoints (public)
	app.Get("/ping", healthHandler.Ping)
	app.Get("/health", healthHandler.Health)

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	// Auth endpoints get a tighter per-IP budget than the rest of the API
	authGroup := api.Group("/auth", middleware.RateLimit(20, time.Minute))
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if d.BruteForce != nil {
		authGroup.Post("/login", d.BruteForce.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/password-reset/request", authHandler.ForgotPassword)
	authGroup.Post("/password-reset/confirm", authHandler.ResetPassword)
	authGroup.Post("/2fa/verify", authHandler.VerifyTwoFactor)
	authGroup.Post("/2fa/resend", authHandler.ResendTwoFactor)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/logout-all", authMiddleware.Required(), authHandler.LogoutAll)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.GetProfile)
	authGroup.Put("/me", authMiddleware.Required(), authHandler.UpdateProfile)
	authGroup.Post("/2fa/enable", authMiddleware.Required(), authHandler.EnableTwoFactor)
	authGroup.Post("/2fa/verify-setup", authMiddleware.Required(), authHandler.VerifyTwoFactorSetup)
	authGroup.Post("/2fa/disable", authMiddleware.Required(), authHandler.DisableTwoFactor)

	// Catalog (public reads)
	api.Get("/categories", courseHandler.ListCategories)
	api.Get("/announcements", announcementHandler.List)
	api.Post("/callback-requests", callbackHandler.Submit)
	api.Get("/payments/config", checkoutHandler.PaymentConfig)

	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:slug", courseHandler.GetCourse)
	courses.Get("/:id/reviews", courseHandler.ListReviews)

	// Student routes on courses
	courses.Post("/:id/enroll-free", authMiddleware.Required(), learningHandler.EnrollFree)
	courses.Post("/:id/reviews", authMiddleware.Required(), courseHandler.UpsertReview)
	api.Delete("/reviews/:id", authMiddleware.Required(), courseHandler.DeleteReview)

	// Instructor/admin course management
	instructor := api.Group("/instructor", authMiddleware.Required(), authMiddleware.RequireInstructor())
	instructor.Get("/courses", courseHandler.MyCourses)
	instructor.Post("/courses", courseHandler.CreateCourse)
	instructor.Put("/courses/:id", courseHandler.UpdateCourse)
	instructor.Delete("/courses/:id", courseHandler.DeleteCourse)
	instructor.Post("/courses/:id/sections", courseHandler.AddSection)
	instructor.Post("/sections/:id/lectures", courseHandler.AddLecture)
	instructor.Delete("/lectures/:id", courseHandler.DeleteLecture)
	instructor.Post("/courses/:id/announcements", announcementHandler.Create)
	instructor.Put("/announcements/:id", announcementHandler.Update)
	instructor.Delete("/announcements/:id", announcementHandler.Delete)

	// Cart
	cart := api.Group("/cart", authMiddleware.Required())
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Delete("/items/:id", cartHandler.RemoveItem)
	cart.Post("/buy-now/:course_id", cartHandler.BuyNow)
	cart.Post("/coupon", cartHandler.ApplyCoupon)
	cart.Delete("/coupon", cartHandler.RemoveCoupon)

	// Checkout
	checkout := api.Group("/checkout", authMiddleware.Required())
	checkout.Post("/card", checkoutHandler.Card)
	checkout.Post("/razorpay", checkoutHandler.Razorpay)
	checkout.Post("/razorpay/verify", checkoutHandler.VerifyRazorpay)
	checkout.Post("/upi", checkoutHandler.UPI)

	// Orders
	orders := api.Group("/orders", authMiddleware.Required())
	orders.Get("/", checkoutHandler.ListOrders)
	orders.Get("/:number", checkoutHandler.GetOrder)
	orders.Get("/:number/invoice", checkoutHandler.GetInvoice)

	// Learning
	learning := api.Group("/learning", authMiddleware.Required())
	learning.Get("/", learningHandler.MyLearning)
	learning.Post("/progress", learningHandler.UpdateProgress)
	learning.Get("/:slug", learningHandler.Player)

	wishlist := api.Group("/wishlist", authMiddleware.Required())
	wishlist.Get("/", learningHandler.Wishlist)
	wishlist.Post("/:course_id", learningHandler.AddToWishlist)
	wishlist.Delete("/:course_id", learningHandler.RemoveFromWishlist)

	api.Get("/certificates", authMiddleware.Required(), learningHandler.Certificates)
	api.Get("/certificates/:id", authMiddleware.Required(), learningHandler.Certificate)
	api.Get("/live-sessions", authMiddleware.Required(), learningHandler.LiveSessions)

	// Notifications
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Put("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Put("/:id/read", notificationHandler.MarkAsRead)
	notifications.Delete("/", notificationHandler.DeleteAllNotifications)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)

	// ==================== Admin ====================

	admin := api.Group("/admin", authMiddleware.Required(), authMiddleware.RequireAdmin())

	// Transactions and orders
	admin.Get("/transactions", paymentsHandler.ListTransactions)
	admin.Get("/transactions/:id", paymentsHandler.GetTransaction)
	admin.Get("/transactions/:id/proof", paymentsHandler.TransactionProof)
	admin.Post("/transactions/batch-approve", middleware.AdminAuditLog(db, "transaction_batch_approve", "transactions"), paymentsHandler.BatchApprove)
	admin.Post("/transactions/batch-reject", middleware.AdminAuditLog(db, "transaction_batch_reject", "transactions"), paymentsHandler.BatchReject)
	admin.Post("/transactions/:id/approve", middleware.AdminAuditLog(db, "transaction_approve", "transactions"), paymentsHandler.Approve)
	admin.Post("/transactions/:id/reject", middleware.AdminAuditLog(db, "transaction_reject", "transactions"), paymentsHandler.Reject)
	admin.Post("/orders/:id/refund", middleware.AdminAuditLog(db, "order_refund", "orders"), paymentsHandler.RefundOrder)

	// Payment config
	admin.Get("/payment-config", paymentsHandler.GetPaymentConfig)
	admin.Put("/payment-config", middleware.AdminAuditLog(db, "payment_config_update", "payment_config"), paymentsHandler.UpdatePaymentConfig)

	// Coupons
	admin.Get("/coupons", adminCatalogHandler.ListCoupons)
	admin.Post("/coupons", middleware.AdminAuditLog(db, "coupon_create", "coupons"), adminCatalogHandler.CreateCoupon)
	admin.Put("/coupons/:id", middleware.AdminAuditLog(db, "coupon_update", "coupons"), adminCatalogHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", middleware.AdminAuditLog(db, "coupon_deactivate", "coupons"), adminCatalogHandler.DeactivateCoupon)

	// Live sessions
	admin.Get("/live-sessions", adminCatalogHandler.ListLiveSessions)
	admin.Post("/live-sessions", middleware.AdminAuditLog(db, "live_session_create", "live_sessions"), adminCatalogHandler.CreateLiveSession)
	admin.Delete("/live-sessions/:id", middleware.AdminAuditLog(db, "live_session_delete", "live_sessions"), adminCatalogHandler.DeleteLiveSession)

	// Announcements
	admin.Get("/announcements", announcementHandler.AdminList)
	admin.Post("/courses/:id/announcements", middleware.AdminAuditLog(db, "announcement_create", "announcements"), announcementHandler.Create)
	admin.Put("/announcements/:id", middleware.AdminAuditLog(db, "announcement_update", "announcements"), announcementHandler.Update)
	admin.Delete("/announcements/:id", middleware.AdminAuditLog(db, "announcement_delete", "announcements"), announcementHandler.Delete)

	// Callback requests
	admin.Get("/callback-requests", callbackHandler.List)
	admin.Patch("/callback-requests/:id", middleware.AdminAuditLog(db, "callback_update", "callback_requests"), callbackHandler.UpdateStatus)

	// Users
	admin.Get("/users", utils.MakeHTTPHandleFunc(admin_handlers.ListUsers, store))
	admin.Get("/users/:id", utils.MakeHTTPHandleFunc(admin_handlers.GetUser, store))
	admin.Put("/users/:id/role", middleware.AdminAuditLog(db, "user_role_update", "users"), utils.MakeHTTPHandleFunc(admin_handlers.UpdateUserRole, store))

	// Analytics and audit logs
	admin.Get("/analytics/overview", utils.MakeHTTPHandleFunc(admin_handlers.GetOverviewAnalytics, store))
	admin.Get("/audit-logs", utils.MakeHTTPHandleFunc(admin_handlers.ListAuditLogs, store))
	admin.Get("/audit-logs/:id", utils.MakeHTTPHandleFunc(admin_handlers.GetAuditLog, store))
}
