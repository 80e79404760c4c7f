package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/codelearn-api/api"
	"github.com/sahilchouksey/codelearn-api/config"
	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/router"
	"github.com/sahilchouksey/codelearn-api/services/cron"
	"github.com/sahilchouksey/codelearn-api/utils/cache"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
)

func SetupAndRunServer() error {

	// Load ENV. A missing .env file is fine when the environment is set directly.
	if err := config.LoadENV(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	log, err := logger.New(getEnv.GO_ENV)
	if err != nil {
		return err
	}
	logger.SetDefault(log)
	defer log.Sync()

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		log.Error("check whether Postgres is running (make docker-up or make db-up)")
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize database tables: %w", err)
	}

	// Redis backs the course cache and login lockouts; both work without it
	redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
	if err != nil {
		log.Warn("failed to connect to Redis, caching and brute force protection disabled", "error", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	c, err := buildContainer(getEnv, store, redisCache)
	if err != nil {
		return err
	}
	if c.publisher != nil {
		defer c.publisher.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Outbox dispatcher, woken by in-process nudges and by NOTIFY from other instances
	workers := make(chan struct{})
	go func() {
		defer close(workers)
		c.dispatcher.Run(ctx)
	}()

	if listener, err := database.NewNotifyListener(store.DSN(), database.OutboxChannel); err != nil {
		log.Warn("outbox listener unavailable, falling back to polling", "error", err)
	} else {
		defer listener.Close()
		go listener.Run(ctx, func(string) { c.outbox.Nudge() })
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.GetDB(), c.cronJobs)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("failed to start cron jobs", "error", err)
			cronManager = nil
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	router.SetupRoutes(server.GetEngine(), c.deps)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run()
	}()

	select {
	case err = <-serverErr:
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err = server.Shutdown(shutdownCtx)
		cancel()
	}

	stop()
	if cronManager != nil {
		cronManager.Stop()
	}
	<-workers

	return err
}
