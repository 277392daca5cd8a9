package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devbyzero/flowlens-gateway/internal/persistence"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	version  string
	postgres *persistence.Postgres
	redis    *persistence.Redis
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{version: version, postgres: postgres, redis: redis}
}

// Health reports overall status with per-dependency detail. Redis is
// optional, so a failed ping degrades the report without flipping it.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{}
	status := "ok"

	if err := h.postgres.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		status = "degraded"
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
	} else {
		checks["redis"] = "ok"
	}

	return c.JSON(fiber.Map{
		"status":  status,
		"version": h.version,
		"checks":  checks,
	})
}

// Live is the liveness probe.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready is the readiness probe. Ingestion cannot proceed without the
// relational store, so readiness tracks it alone.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.postgres.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
