package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// AttemptStore is the subset of the Redis cache the brute force guard needs
type AttemptStore interface {
	CountInWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	Lock(ctx context.Context, key string, d time.Duration) error
	LockRemaining(ctx context.Context, key string, fallback time.Duration) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
}

const attemptWindow = 15 * time.Minute

// BruteForceProtection handles brute force protection using Redis
type BruteForceProtection struct {
	store AttemptStore
}

// NewBruteForceProtection creates a new brute force protection instance.
// A nil store disables the protection.
func NewBruteForceProtection(store AttemptStore) *BruteForceProtection {
	return &BruteForceProtection{store: store}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

func (b *BruteForceProtection) enabled() bool { return b != nil && b.store != nil }

// CheckAndRecordAttempt middleware checks if IP is locked out
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !b.enabled() {
			return c.Next()
		}

		remaining, err := b.store.LockRemaining(c.UserContext(), lockKey(c.IP()), time.Minute)
		if err != nil {
			// Redis being down must not lock legitimate users out
			logger.L().Warn("brute force check unavailable", "error", err)
			return c.Next()
		}
		if remaining <= 0 {
			return c.Next()
		}

		retryAfter := int(math.Ceil(remaining.Seconds()))
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// lockoutFor maps failures inside the window to a progressively longer lock
func lockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// RecordFailedAttempt records a failed login attempt and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(ctx context.Context, ip, email string) {
	if !b.enabled() {
		return
	}

	attempts, err := b.store.CountInWindow(ctx, attemptKey(ip), attemptWindow)
	if err != nil {
		logger.L().Warn("failed to count login attempt", "ip", ip, "error", err)
		return
	}

	lockDuration := lockoutFor(attempts)
	if lockDuration == 0 {
		return
	}

	logger.L().Warn("locking out login attempts", "ip", ip, "email", email, "attempts", attempts, "duration", lockDuration)
	if err := b.store.Lock(ctx, lockKey(ip), lockDuration); err != nil {
		logger.L().Warn("failed to store login lockout", "ip", ip, "error", err)
	}
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(ctx context.Context, ip string) {
	if !b.enabled() {
		return
	}
	_ = b.store.Delete(ctx, attemptKey(ip), lockKey(ip))
}
