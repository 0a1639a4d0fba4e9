package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/graphaura/graphaura"
)

// Build information - can be set at build time using ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	service graphaura.Service
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service graphaura.Service) *HealthHandler {
	return &HealthHandler{service: service}
}

// LivenessCheck handles GET /live - confirms the process is running.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "graphaura",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheck handles GET /health - probes every configured component. A
// degraded component turns the response into a 503 so load balancers can
// rotate the instance out.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := h.service.Health(ctx)
	response := gin.H{
		"status":     status.Status,
		"service":    "graphaura",
		"version":    Version,
		"components": status.Components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	if status.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// DetailedHealthCheck handles GET /health/detailed - component probes plus
// build and runtime information.
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	start := time.Now()
	status := h.service.Health(ctx)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := gin.H{
		"status":     status.Status,
		"service":    "graphaura",
		"version":    Version,
		"components": status.Components,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
			"go_version": GoVersion,
		},
		"system": gin.H{
			"goroutines":   runtime.NumGoroutine(),
			"heap_objects": m.HeapObjects,
			"gc_cycles":    m.NumGC,
		},
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"response_time_ms": time.Since(start).Milliseconds(),
	}

	if status.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
