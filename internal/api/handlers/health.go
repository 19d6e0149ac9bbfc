package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// HealthChecker reports whether one backing component is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PoolCounter reports how many distinct datasets the collector can supply.
type PoolCounter interface {
	AvailableDatasets() int
}

// HealthHandler serves liveness, readiness and component health.
type HealthHandler struct {
	db        HealthChecker
	redis     HealthChecker
	collector PoolCounter
	version   string
}

// NewHealthHandler creates the handler. Either checker may be nil when the
// component is not configured; a nil component reports "not configured"
// without degrading overall health.
func NewHealthHandler(db, redis HealthChecker, collector PoolCounter, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, collector: collector, version: version}
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

// HealthCheck reports per-component status. Optional components that are not
// configured do not degrade the overall verdict; configured but unreachable
// ones do.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)
	status := "healthy"

	if h.db == nil {
		services["postgres"] = "not configured"
	} else if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		services["postgres"] = "unhealthy: " + err.Error()
		status = "degraded"
	} else {
		services["postgres"] = "healthy"
	}

	if h.redis == nil {
		services["redis"] = "not configured"
	} else if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
		services["redis"] = "unhealthy: " + err.Error()
		status = "degraded"
	} else {
		services["redis"] = "healthy"
	}

	if h.collector == nil || h.collector.AvailableDatasets() < 2 {
		services["collector"] = "unhealthy: fewer than two datasets available"
		status = "degraded"
	} else {
		services["collector"] = "healthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	})
}

// ReadinessCheck reports whether the service can answer generation requests.
// Only the collector is required: the engine falls back to in-memory stores
// when Postgres or Redis are absent.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.collector == nil || h.collector.AvailableDatasets() < 2 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// LivenessCheck reports that the process is up.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alive": true, "uptime": time.Since(startTime).String()})
}
