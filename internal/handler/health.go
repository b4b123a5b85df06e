package handler

import (
	"net/http"
	"time"

	"brokerkyc/pkg/logger"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	db        *sqlx.DB
	redis     *redis.Client
	logger    logger.Logger
	startTime time.Time
}

func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redisClient,
		logger:    log,
		startTime: time.Now(),
	}
}

// Health reports process liveness and the state of each dependency. Any
// failing dependency degrades the overall status and the response code.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	deps := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			deps["postgres"] = "down: " + err.Error()
			healthy = false
		} else {
			deps["postgres"] = "up"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(r.Context()).Err(); err != nil {
			deps["redis"] = "down: " + err.Error()
			healthy = false
		} else {
			deps["redis"] = "up"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(h.logger, w, code, map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"dependencies":   deps,
	})
}
