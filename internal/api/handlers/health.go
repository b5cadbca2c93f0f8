package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/types"
	"github.com/courtmetrics/valuation/pkg/database"
)

// HealthHandler handles health check endpoints for the valuation service
type HealthHandler struct {
	db     *database.DB
	redis  *redis.Client
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	db *database.DB,
	redisClient *redis.Client,
	logger *logrus.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// GetHealth returns the basic health status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := types.HealthStatus{
		Status:    "ok",
		Service:   "valuation-service",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	// Database is critical: the pipeline cannot run without it.
	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			response.Status = "unhealthy"
			response.Checks["database"] = "failed: " + err.Error()
		} else {
			response.Checks["database"] = "ok"
		}
	} else {
		response.Checks["database"] = "not_configured"
	}

	// Redis only backs the read cache; a failure degrades, not kills.
	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			if response.Status == "ok" {
				response.Status = "degraded"
			}
			response.Checks["redis"] = "failed: " + err.Error()
		} else {
			response.Checks["redis"] = "ok"
		}
	} else {
		response.Checks["redis"] = "not_configured"
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// GetReady reports whether the service can accept traffic
func (h *HealthHandler) GetReady(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "reason": "database unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
