package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/cache"
	"github.com/spuriolabs/spurio/internal/engine"
)

// EngineStats exposes the engine's state snapshot to the admin surface.
type EngineStats interface {
	Stats() engine.Stats
}

// AdminHandler serves the operator endpoints behind the admin key.
type AdminHandler struct {
	engine  EngineStats
	records cache.RecordStore
	logger  *logrus.Logger
}

// NewAdminHandler creates the handler.
func NewAdminHandler(engine EngineStats, records cache.RecordStore, logger *logrus.Logger) *AdminHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AdminHandler{engine: engine, records: records, logger: logger}
}

// SystemResponse is the admin system endpoint payload.
type SystemResponse struct {
	Timestamp     time.Time    `json:"timestamp"`
	Uptime        string       `json:"uptime"`
	CPUPercent    float64      `json:"cpu_percent"`
	MemoryPercent float64      `json:"memory_percent"`
	MemoryUsedMB  uint64       `json:"memory_used_mb"`
	Goroutines    int          `json:"goroutines"`
	Engine        engine.Stats `json:"engine"`
}

// GetSystemStats reports host resource usage alongside the engine snapshot.
// A gopsutil failure zeroes the affected metric rather than failing the call.
func (h *AdminHandler) GetSystemStats(c *gin.Context) {
	ctx := c.Request.Context()
	resp := SystemResponse{
		Timestamp:  time.Now(),
		Uptime:     time.Since(startTime).String(),
		Goroutines: runtime.NumGoroutine(),
		Engine:     h.engine.Stats(),
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		h.logger.WithError(err).Warn("Could not read CPU usage")
	} else if len(percents) > 0 {
		resp.CPUPercent = percents[0]
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		h.logger.WithError(err).Warn("Could not read memory usage")
	} else {
		resp.MemoryPercent = memInfo.UsedPercent
		resp.MemoryUsedMB = memInfo.Used / (1024 * 1024)
	}

	c.JSON(http.StatusOK, resp)
}

// GetCacheStats reports result-store hit/miss counters.
func (h *AdminHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.records.Stats(c.Request.Context()))
}

// ClearCache drops every stored correlation record.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	removed, err := h.records.Clear(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to clear result cache")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cache"})
		return
	}
	h.logger.WithField("removed", removed).Info("Result cache cleared")
	c.JSON(http.StatusOK, gin.H{"cleared": removed})
}
