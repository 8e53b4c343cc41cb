package handlers

import (
	"context"
	"net/http"
	"time"

	"carrental/internal/caching"
	"carrental/pkg/database"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 2 * time.Second

// JobStatusProvider reports background job registrations.
type JobStatusProvider interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db        database.Querier
	cache     caching.CacheService
	jobs      JobStatusProvider
	version   string
	startedAt time.Time
}

func NewHealthHandlers(db database.Querier, cache caching.CacheService, jobs JobStatusProvider, version string) *HealthHandlers {
	return &HealthHandlers{db: db, cache: cache, jobs: jobs, version: version, startedAt: time.Now()}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Services  map[string]string      `json:"services,omitempty"`
	Jobs      map[string]interface{} `json:"jobs,omitempty"`
}

// HealthCheck godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthStatus
// @Router /health [get]
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, &HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// ReadinessCheck godoc
// @Summary Readiness probe (database and Redis)
// @Tags health
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus
// @Router /health/ready [get]
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Services:  map[string]string{"database": "healthy", "redis": "healthy"},
	}

	if _, err := h.db.Exec(ctx, "SELECT 1"); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "not_ready"
	}
	if err := h.cache.Ping(ctx); err != nil {
		health.Services["redis"] = "unhealthy"
		health.Status = "not_ready"
	}
	if h.jobs != nil {
		health.Jobs = h.jobs.GetJobStatus()
	}

	status := http.StatusOK
	if health.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, health)
}
