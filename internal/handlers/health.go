package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"ludotheque/internal/config"
	"ludotheque/internal/monitoring"
)

const serviceVersion = "1.0.0"

var startTime = time.Now()

// HealthChecker interface pour vérifier la santé des composants
type HealthChecker interface {
	HealthCheck() error
}

// HealthHandler gère les endpoints de santé et monitoring
type HealthHandler struct {
	config *config.Config
	store  HealthChecker
}

// NewHealthHandler crée un nouveau handler de santé
func NewHealthHandler(config *config.Config, store HealthChecker) *HealthHandler {
	return &HealthHandler{
		config: config,
		store:  store,
	}
}

// HealthCheck endpoint de santé du service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	checks := make(map[string]interface{})
	status := "healthy"

	if h.store != nil {
		if err := h.store.HealthCheck(); err != nil {
			checks["store"] = map[string]interface{}{
				"status": "unhealthy",
				"driver": h.config.Database.Driver,
			}
			status = "unhealthy"
		} else {
			checks["store"] = map[string]interface{}{
				"status": "healthy",
				"driver": h.config.Database.Driver,
			}
		}
	} else {
		checks["store"] = map[string]interface{}{"status": "unknown"}
		status = "degraded"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	health := map[string]interface{}{
		"status":      status,
		"service":     "ludotheque",
		"version":     serviceVersion,
		"timestamp":   time.Now().Unix(),
		"uptime":      time.Since(startTime).Seconds(),
		"environment": h.config.Server.Environment,
		"checks":      checks,
		"system": map[string]interface{}{
			"goroutines":   runtime.NumGoroutine(),
			"memory_alloc": bToMb(m.Alloc),
			"gc_cycles":    m.NumGC,
		},
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, health)
}

// Readiness endpoint de préparation (Kubernetes)
func (h *HealthHandler) Readiness(c *gin.Context) {
	ready := h.store != nil && h.store.HealthCheck() == nil

	status := "ready"
	httpStatus := http.StatusOK
	if !ready {
		status = "not ready"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"service":   "ludotheque",
		"timestamp": time.Now().Unix(),
	})
}

// Liveness endpoint de vivacité (Kubernetes)
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "alive",
		"service":    "ludotheque",
		"timestamp":  time.Now().Unix(),
		"uptime":     time.Since(startTime).Seconds(),
		"goroutines": runtime.NumGoroutine(),
	})
}

// Metrics endpoint pour Prometheus
func (h *HealthHandler) Metrics(c *gin.Context) {
	monitoring.Handler().ServeHTTP(c.Writer, c.Request)
}

// Version endpoint
func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "ludotheque",
		"version":     serviceVersion,
		"build_time":  startTime.Format(time.RFC3339),
		"go_version":  runtime.Version(),
		"environment": h.config.Server.Environment,
	})
}

// Ping endpoint simple
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"time":    time.Now().Unix(),
	})
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
