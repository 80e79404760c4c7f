package app

import (
	"fmt"
	"time"

	"github.com/sahilchouksey/codelearn-api/config"
	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/router"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/services/cron"
	"github.com/sahilchouksey/codelearn-api/services/events"
	"github.com/sahilchouksey/codelearn-api/services/mailer"
	"github.com/sahilchouksey/codelearn-api/services/storage"
	"github.com/sahilchouksey/codelearn-api/utils/auth"
	"github.com/sahilchouksey/codelearn-api/utils/cache"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/middleware"
	"github.com/sahilchouksey/codelearn-api/utils/pdfvalidation"
)

// container holds the wired service graph plus the background workers that
// share it
type container struct {
	deps       router.Deps
	outbox     *services.Outbox
	dispatcher *services.Dispatcher
	cronJobs   cron.Jobs
	publisher  *events.KafkaPublisher
}

func buildContainer(env *config.EnvironmentVariable, store database.Storage, redisCache *cache.RedisCache) (*container, error) {
	if env.JWT_SECRET == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	db := store.GetDB()

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        env.JWT_ISSUER,
	})
	blacklist := auth.NewBlacklistService(db)

	proofs, err := storage.New(storage.Config{
		Driver:   env.STORAGE_DRIVER,
		LocalDir: env.STORAGE_LOCAL_DIR,
		Spaces: storage.SpacesConfig{
			AccessKey: env.DO_SPACES_ACCESS_KEY,
			SecretKey: env.DO_SPACES_SECRET_KEY,
			Bucket:    env.DO_SPACES_BUCKET,
			Region:    env.DO_SPACES_REGION,
			Endpoint:  env.DO_SPACES_ENDPOINT,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	m := mailer.New(mailer.Options{
		SendGridAPIKey: env.SENDGRID_API_KEY,
		SMTP: mailer.SMTPConfig{
			Host:     env.SMTP_HOST,
			Port:     env.SMTP_PORT,
			Username: env.SMTP_USERNAME,
			Password: env.SMTP_PASSWORD,
			From:     mailer.Sender{Name: "CodeLearn", Address: env.EMAIL_FROM},
		},
	})
	logger.L().Info("email transport selected", "mailer", m.Name())

	emails := services.NewEmailService(m, services.EmailConfig{
		AppURL:      env.APP_URL,
		AdminEmails: env.ADMIN_EMAILS,
		Timeout:     env.EMAIL_TIMEOUT,
	})

	// The catalog takes an interface, so a missing Redis must stay an untyped nil
	var courseCache services.JSONCache
	var bruteForce *middleware.BruteForceProtection
	var pinger router.Pinger
	if redisCache != nil {
		courseCache = redisCache
		bruteForce = middleware.NewBruteForceProtection(redisCache)
		pinger = redisCache
	}

	outbox := services.NewOutbox()
	catalog := services.NewCatalogService(db, courseCache)
	coupons := services.NewCouponService(db)
	carts := services.NewCartService(db, coupons)
	orders := services.NewOrderService(db, carts)
	invoices := services.NewInvoiceService(db)
	notifications := services.NewNotificationService(db)
	fulfillment := services.NewFulfillmentService(db, invoices, coupons, notifications, outbox)
	paymentConfig := services.NewPaymentConfigService(db, env.ENCRYPTION_MASTER_KEY, services.RazorpayCredentials{
		KeyID:     env.RAZORPAY_KEY_ID,
		KeySecret: env.RAZORPAY_KEY_SECRET,
	})
	payments := services.NewPaymentService(services.PaymentDeps{
		DB:          db,
		Orders:      orders,
		Fulfillment: fulfillment,
		Configs:     paymentConfig,
		Razorpay:    services.NewRazorpayClient(env.RAZORPAY_BASE_URL),
		Storage:     proofs,
		ProofLimits: pdfvalidation.ProofLimits{MaxFileSizeMB: 10, MaxPages: 5},
	})
	authService := services.NewAuthService(db, outbox, emails)

	var publisher *events.KafkaPublisher
	var eventPublisher services.EventPublisher
	if len(env.KAFKA_BROKERS) > 0 {
		publisher = events.NewKafkaPublisher(env.KAFKA_BROKERS, env.KAFKA_TOPIC)
		eventPublisher = publisher
	}
	dispatcher := services.NewDispatcher(db, outbox, eventPublisher)
	services.RegisterEventHandlers(dispatcher, db, emails)

	c := &container{
		outbox:     outbox,
		dispatcher: dispatcher,
		publisher:  publisher,
		cronJobs: cron.Jobs{
			Dispatcher:    dispatcher,
			Fulfillment:   fulfillment,
			Auth:          authService,
			Notifications: notifications,
			Blacklist:     blacklist,
		},
		deps: router.Deps{
			Store:          store,
			Redis:          pinger,
			JWT:            jwtManager,
			Blacklist:      blacklist,
			BruteForce:     bruteForce,
			Proofs:         proofs,
			AllowedOrigins: env.ALLOWED_ORIGINS,
			MetricsEnabled: env.METRICS_ENABLED,

			Auth:          authService,
			TwoFactor:     services.NewTwoFactorService(db, emails),
			Catalog:       catalog,
			Reviews:       services.NewReviewService(db, catalog),
			Enrollments:   services.NewEnrollmentService(db, catalog),
			Carts:         carts,
			Coupons:       coupons,
			Orders:        orders,
			Payments:      payments,
			Fulfillment:   fulfillment,
			Invoices:      invoices,
			PaymentConfig: paymentConfig,
			Notifications: notifications,
			Announcements: services.NewAnnouncementService(db, catalog),
			Callbacks:     services.NewCallbackService(db, outbox),
		},
	}
	return c, nil
}
