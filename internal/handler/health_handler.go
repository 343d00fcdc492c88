package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/database"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/redis"
)

const readinessProbeTimeout = 5 * time.Second

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db    *database.PostgresDB
	redis *redis.Client
}

func NewHealthHandler(db *database.PostgresDB, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health is the liveness probe. It answers as long as the process is up,
// regardless of backing-store state.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready is the readiness probe. It round-trips every backing store so the
// instance is pulled from rotation when postgres or redis is unreachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessProbeTimeout)
	defer cancel()

	type check struct {
		name  string
		probe func(context.Context) error
	}
	var checks []check
	if h.db != nil {
		checks = append(checks, check{"database", h.db.HealthCheck})
	}
	if h.redis != nil {
		checks = append(checks, check{"redis", h.redis.HealthCheck})
	}

	components := make(map[string]string, len(checks))
	ready := true
	for _, chk := range checks {
		if err := chk.probe(ctx); err != nil {
			components[chk.name] = "unhealthy: " + err.Error()
			ready = false
			continue
		}
		components[chk.name] = "healthy"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}
