package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	engine Engine
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(engine Engine) *HealthHandler {
	return &HealthHandler{engine: engine}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "lattice",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// LivenessCheck handles GET /live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready. The engine is exercised with a cost
// estimate, which touches the graph snapshot without running any strategy.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  "engine not initialized",
		})
		return
	}

	start := time.Now()
	_, err := h.engine.EstimateCost(c.Request.Context(), "readiness")
	duration := time.Since(start)

	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not_ready",
			"error":    err.Error(),
			"duration": duration.String(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"duration": duration.String(),
	})
}

// DetailedHealthCheck handles GET /health/detailed
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "lattice",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"build": gin.H{
			"version":    Version,
			"git_commit": GitCommit,
			"build_time": BuildTime,
			"go_version": GoVersion,
		},
		"runtime": gin.H{
			"goroutines":     runtime.NumGoroutine(),
			"alloc_bytes":    mem.Alloc,
			"num_gc":         mem.NumGC,
			"gomaxprocs":     runtime.GOMAXPROCS(0),
			"engine_present": h.engine != nil,
		},
	})
}
