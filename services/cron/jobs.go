package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services"
)

const (
	notificationRetention = 90 * 24 * time.Hour
	cronLogRetention      = 30 * 24 * time.Hour
)

// DispatchOutbox delivers due outbox events
func (m *CronManager) DispatchOutbox(ctx context.Context) (string, error) {
	sent, err := m.jobs.Dispatcher.DispatchPending(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("dispatched %d events", sent), nil
}

// ExpireGatewayOrders fails Razorpay orders left unpaid
func (m *CronManager) ExpireGatewayOrders(ctx context.Context) (string, error) {
	expired, err := m.jobs.Fulfillment.ExpireStaleGatewayOrders(ctx, services.DefaultGatewayOrderTTL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("expired %d orders", expired), nil
}

// CleanupTokenBlacklist removes blacklist entries of tokens that expired anyway
func (m *CronManager) CleanupTokenBlacklist(ctx context.Context) (string, error) {
	removed, err := m.jobs.Blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("removed %d revoked tokens", removed), nil
}

// CleanupOldData prunes read notifications, used reset tokens and job logs
func (m *CronManager) CleanupOldData(ctx context.Context) (string, error) {
	notifications, err := m.jobs.Notifications.CleanupOldNotifications(ctx, notificationRetention)
	if err != nil {
		return "", err
	}

	resets, err := m.jobs.Auth.CleanupExpiredResetTokens(ctx)
	if err != nil {
		return "", err
	}

	cutoff := time.Now().UTC().Add(-cronLogRetention)
	res := m.db.WithContext(ctx).Where("started_at < ?", cutoff).Delete(&model.CronJobLog{})
	if res.Error != nil {
		return "", fmt.Errorf("failed to delete cron logs: %w", res.Error)
	}

	return fmt.Sprintf("removed %d notifications, %d reset tokens, %d job logs",
		notifications, resets, res.RowsAffected), nil
}
