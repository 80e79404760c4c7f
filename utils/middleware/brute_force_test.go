package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAttempts struct {
	counts map[string]int64
	locks  map[string]time.Duration
}

func newMemoryAttempts() *memoryAttempts {
	return &memoryAttempts{counts: map[string]int64{}, locks: map[string]time.Duration{}}
}

func (m *memoryAttempts) CountInWindow(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryAttempts) Lock(_ context.Context, key string, d time.Duration) error {
	m.locks[key] = d
	return nil
}

func (m *memoryAttempts) LockRemaining(_ context.Context, key string, _ time.Duration) (time.Duration, error) {
	return m.locks[key], nil
}

func (m *memoryAttempts) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.counts, k)
		delete(m.locks, k)
	}
	return nil
}

func loginApp(guard *BruteForceProtection) *fiber.App {
	app := fiber.New()
	app.Post("/login", guard.CheckAndRecordAttempt(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestBruteForceLocksAfterFiveFailures(t *testing.T) {
	store := newMemoryAttempts()
	guard := NewBruteForceProtection(store)
	app := loginApp(guard)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		guard.RecordFailedAttempt(ctx, "0.0.0.0", "a@example.com")
	}
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	guard.RecordFailedAttempt(ctx, "0.0.0.0", "a@example.com")
	assert.Equal(t, 2*time.Minute, store.locks[lockKey("0.0.0.0")])

	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "120", resp.Header.Get(fiber.HeaderRetryAfter))

	guard.RecordSuccessfulAttempt(ctx, "0.0.0.0")
	assert.Empty(t, store.counts)
	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLockoutGrowsWithAttempts(t *testing.T) {
	assert.Zero(t, lockoutFor(4))
	assert.Equal(t, 2*time.Minute, lockoutFor(5))
	assert.Equal(t, time.Hour, lockoutFor(10))
	assert.Equal(t, 24*time.Hour, lockoutFor(25))
}

func TestBruteForceWithoutRedisIsDisabled(t *testing.T) {
	var guard *BruteForceProtection
	guard.RecordFailedAttempt(context.Background(), "0.0.0.0", "a@example.com")
	guard.RecordSuccessfulAttempt(context.Background(), "0.0.0.0")

	resp, err := loginApp(guard).Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
