// Package cron runs the periodic maintenance jobs of the API
package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/auth"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"gorm.io/gorm"
)

// Jobs holds the services the scheduled jobs act on
type Jobs struct {
	Dispatcher    *services.Dispatcher
	Fulfillment   *services.FulfillmentService
	Auth          *services.AuthService
	Notifications *services.NotificationService
	Blacklist     *auth.BlacklistService
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
	jobs Jobs
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, jobs Jobs) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger{})))

	return &CronManager{
		cron: c,
		db:   db,
		jobs: jobs,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	logger.L().Info("starting cron jobs")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	logger.L().Info("cron jobs started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	logger.L().Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	logger.L().Info("cron jobs stopped")
}

type job struct {
	name     string
	schedule string
	timeout  time.Duration
	run      func(ctx context.Context) (string, error)
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	jobs := []job{
		// Every minute: deliver outbox events the in-process nudge missed
		{"dispatch_outbox", "0 * * * * *", 50 * time.Second, m.DispatchOutbox},
		// Every 5 minutes: fail Razorpay orders nobody paid
		{"expire_gateway_orders", "30 */5 * * * *", 2 * time.Minute, m.ExpireGatewayOrders},
		// Hourly: drop expired blacklisted tokens
		{"cleanup_token_blacklist", "0 15 * * * *", time.Minute, m.CleanupTokenBlacklist},
		// Daily at 2 AM: old notifications, reset tokens and job logs
		{"cleanup_old_data", "0 0 2 * * *", 10 * time.Minute, m.CleanupOldData},
	}

	for _, j := range jobs {
		j := j
		if _, err := m.cron.AddFunc(j.schedule, func() { m.runJob(j) }); err != nil {
			return err
		}
	}

	logger.L().Info("cron jobs registered", "count", len(jobs))
	return nil
}

// runJob executes j with a bounded context and records the run
func (m *CronManager) runJob(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	entry := m.logJobStart(j.name)
	message, err := j.run(ctx)
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, message)
}

// logJobStart records the start of a cron job
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	logger.L().Debug("cron job started", "job", jobName)

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := m.db.Create(entry).Error; err != nil {
		logger.L().Warn("failed to record cron job start", "job", jobName, "error", err)
	}
	return entry
}

// logJobComplete records successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string) {
	logger.L().Info("cron job completed", "job", entry.JobName, "message", message)
	m.finish(entry, map[string]interface{}{
		"status":  model.CronStatusCompleted,
		"message": message,
	})
}

// logJobError records a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	logger.L().Error("cron job failed", "job", entry.JobName, "error", err)
	m.finish(entry, map[string]interface{}{
		"status":    model.CronStatusFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finish(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	now := time.Now().UTC()
	updates["completed_at"] = now
	updates["duration"] = now.Sub(entry.StartedAt).Milliseconds()
	if err := m.db.Model(entry).Updates(updates).Error; err != nil {
		logger.L().Warn("failed to record cron job result", "job", entry.JobName, "error", err)
	}
}

// cronLogger adapts the zap logger to cron.Logger for panic recovery
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.L().Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.L().Error(msg, append(keysAndValues, "error", err)...)
}
