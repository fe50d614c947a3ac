package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/horizon/backend/pkg/database"
	"github.com/wonny/horizon/backend/pkg/logger"
	redispkg "github.com/wonny/horizon/backend/pkg/redis"
)

// HealthHandler reports process liveness and dependency health
type HealthHandler struct {
	db     *database.DB
	redis  *redispkg.Client
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, redis *redispkg.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: log,
	}
}

// HealthResponse 헬스 스냅샷 (db 장애 시 degraded + 503)
type HealthResponse struct {
	Status   string    `json:"status"`
	Service  string    `json:"service"`
	Database string    `json:"database"`
	Redis    string    `json:"redis"`
	Time     time.Time `json:"time"`
}

// Check returns server health status
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Service:  "horizon-api",
		Database: "up",
		Redis:    "disabled",
		Time:     time.Now(),
	}

	if _, err := h.db.HealthCheck(ctx); err != nil {
		h.logger.WithError(err).Warn("Database health check failed")
		resp.Status = "degraded"
		resp.Database = "down"
	}

	if h.redis != nil && h.redis.Enabled() {
		resp.Redis = "up"
		if err := h.redis.Redis().Ping(ctx).Err(); err != nil {
			h.logger.WithError(err).Warn("Redis health check failed")
			resp.Redis = "down"
			// Redis는 선택 의존성 (캐시/레이트리밋만 영향), degraded로 치지 않음
		}
	}

	status := http.StatusOK
	if resp.Status == "degraded" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
