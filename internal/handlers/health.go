package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/study-planner/internal/queue"
	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 5 * time.Second

// Pinger is satisfied by *database.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	db       Pinger
	redis    *redis.Client
	jobQueue queue.JobQueue
}

// NewHealthChecker creates a health checker that only knows about the database
func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{db: db}
}

// NewHealthCheckerWithDeps creates a health checker for every backing service.
// Nil dependencies (mock mode) are reported as disabled.
func NewHealthCheckerWithDeps(db Pinger, redisClient *redis.Client, jobQueue queue.JobQueue) *HealthChecker {
	return &HealthChecker{db: db, redis: redisClient, jobQueue: jobQueue}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended probes each dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		probes := map[string]func(context.Context) error{}
		if h.db != nil {
			probes["database"] = h.db.PingContext
		}
		if h.redis != nil {
			probes["redis"] = func(ctx context.Context) error { return h.redis.Ping(ctx).Err() }
		}
		if h.jobQueue != nil {
			probes["queue"] = h.jobQueue.HealthCheck
		}

		checks := map[string]string{"database": "disabled", "redis": "disabled", "queue": "disabled"}
		for name, probe := range probes {
			if err := probe(ctx); err != nil {
				response.Status = "unhealthy"
				checks[name] = "unhealthy: " + err.Error()
				continue
			}
			checks[name] = "healthy"
		}
		response.Checks = checks

		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
