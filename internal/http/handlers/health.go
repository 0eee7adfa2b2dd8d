package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	redis        *redis.Client
	jobStoreKind string
	now          func() time.Time
}

// NewHealthHandler builds a HealthHandler. A nil redis client reports the
// dependency as disabled.
func NewHealthHandler(redisClient *redis.Client, jobStoreKind string) *HealthHandler {
	return &HealthHandler{redis: redisClient, jobStoreKind: jobStoreKind, now: time.Now}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	redisStatus := "disabled"
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
			status = "degraded"
		} else {
			redisStatus = "healthy"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"services": map[string]string{
			"api":       "healthy",
			"redis":     redisStatus,
			"job_store": h.jobStoreKind,
		},
	})
}
