package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type healthStatus string

const (
	healthStatusUp       healthStatus = "up"
	healthStatusDegraded healthStatus = "degraded"
	healthStatusDown     healthStatus = "down"
)

type healthReport struct {
	Status     healthStatus            `json:"status"`
	Version    string                  `json:"version,omitempty"`
	Components map[string]healthStatus `json:"components,omitempty"`
}

// HealthHandler reports service and dependency health for probes.
type HealthHandler struct {
	db      *pgxpool.Pool
	redis   *redis.Client
	version string
}

func NewHealthHandler(db *pgxpool.Pool, redisClient *redis.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, version: version}
}

// LivenessCheck handles the kubernetes liveness probe.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// ReadinessCheck reports whether dependencies are reachable.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	report := h.check(c.Request.Context())
	if report.Status == healthStatusDown {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DetailedHealth reports per-component health.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.check(c.Request.Context()))
}

func (h *HealthHandler) check(ctx context.Context) healthReport {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	components := map[string]healthStatus{
		"database": healthStatusUp,
		"redis":    healthStatusUp,
	}

	status := healthStatusUp
	if h.db == nil || h.db.Ping(ctx) != nil {
		components["database"] = healthStatusDown
		status = healthStatusDown
	}
	if h.redis == nil || h.redis.Ping(ctx).Err() != nil {
		components["redis"] = healthStatusDown
		// Redis being down degrades events and rate limiting but the
		// ledger itself still works.
		if status == healthStatusUp {
			status = healthStatusDegraded
		}
	}

	return healthReport{
		Status:     status,
		Version:    h.version,
		Components: components,
	}
}
