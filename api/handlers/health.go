package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"example.com/backstage/bookings/internal/metrics"

	"github.com/gin-gonic/gin"
)

// healthTimeout bounds each dependency probe
const healthTimeout = 2 * time.Second

// Probe checks one dependency
type Probe func(ctx context.Context) error

// HealthHandler reports liveness of the service and its dependencies
type HealthHandler struct {
	probes map[string]Probe
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	return &HealthHandler{probes: probes}
}

// HealthCheck handles health check requests. Any failing probe turns the
// answer into a 503.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.probes))
	for name, probe := range h.probes {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		err := probe(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"service": "Bookings Service",
		"checks":  checks,
	})
}

// MetricsHandler exposes the in-process metrics with runtime figures
func MetricsHandler(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		data := collector.Snapshot()
		data["runtime"] = gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_bytes":       memStats.Alloc,
				"total_alloc_bytes": memStats.TotalAlloc,
				"sys_bytes":         memStats.Sys,
				"heap_objects":      memStats.HeapObjects,
				"gc_cycles":         memStats.NumGC,
			},
		}
		c.JSON(http.StatusOK, data)
	}
}
