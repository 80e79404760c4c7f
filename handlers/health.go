package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// Pinger is anything with a liveness probe, the Redis cache among them
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness of the API and its backing services
type HealthHandler struct {
	store database.Storage
	redis Pinger
}

// NewHealthHandler creates a health handler. redis may be nil.
func NewHealthHandler(store database.Storage, redis Pinger) *HealthHandler {
	return &HealthHandler{store: store, redis: redis}
}

// Ping handles GET /ping
func (h *HealthHandler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{"database": "ok"}
	healthy := true

	if err := h.store.HealthCheck(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	if h.redis == nil {
		checks["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx); err != nil {
		// Redis only backs caches and lockouts, so it degrades rather than fails
		checks["redis"] = err.Error()
	} else {
		checks["redis"] = "ok"
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "checks": checks})
	}
	return response.Success(c, fiber.Map{"status": "ok", "checks": checks})
}
