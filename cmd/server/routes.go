package main

import (
	"net/http"
	"time"

	"github.com/benvon/study-planner/internal/auth"
	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/handlers"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/progress"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// assistantTimeout leaves room for a model round trip on top of the normal request budget
const assistantTimeout = 60 * time.Second

// routerDeps is everything the HTTP surface needs
type routerDeps struct {
	backend   *backend
	calendar  *calendar.Service
	progress  *progress.Service
	assistant *ai.AssistantService
	authn     auth.Authenticator
	jobQueue  queue.JobQueue
	redis     *redis.Client
	// rateLimit is nil when no limiter is configured
	rateLimit   func(http.Handler) http.Handler
	enableHSTS  bool
	otelService string
}

func newRouter(d routerDeps, log *zap.Logger) (*mux.Router, error) {
	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order: the first registered is outermost
	if d.otelService != "" {
		r.Use(otelmux.Middleware(d.otelService))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Audit(log))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.SecurityHeaders(d.enableHSTS))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, log))
	r.Use(middleware.ContentType(log))

	health := handlers.NewHealthCheckerWithDeps(d.backend.db, d.redis, d.jobQueue)
	r.HandleFunc("/healthz", health.HealthCheck).Methods(http.MethodGet)

	openAPI, err := handlers.NewOpenAPIHandler()
	if err != nil {
		return nil, err
	}
	openAPI.RegisterRoutes(r)

	api := r.PathPrefix("/api/v1").Subrouter()
	protect := func(prefix string, timeout time.Duration) *mux.Router {
		sub := api.PathPrefix(prefix).Subrouter()
		sub.Use(middleware.Timeout(timeout))
		sub.Use(middleware.Auth(d.authn, log))
		if d.rateLimit != nil {
			sub.Use(d.rateLimit)
		}
		return sub
	}

	handlers.NewAuthHandler(d.backend.journeys, log).
		RegisterRoutes(protect("/auth", middleware.DefaultRequestTimeout))
	handlers.NewScheduleHandler(d.calendar, log).
		RegisterRoutes(protect("/schedules", middleware.DefaultRequestTimeout))
	handlers.NewPreferencesHandler(d.calendar.Preferences(), log).
		RegisterRoutes(protect("/preferences", middleware.DefaultRequestTimeout))
	handlers.NewTodoHandler(d.backend.todos, d.calendar, d.jobQueue, log).
		RegisterRoutes(protect("/todos", middleware.DefaultRequestTimeout))
	handlers.NewPathHandler(d.backend.paths, d.progress, log).
		RegisterRoutes(protect("/paths", middleware.DefaultRequestTimeout))
	handlers.NewAssistantHandler(d.assistant).
		RegisterRoutes(protect("/assistant", assistantTimeout))

	// preflight requests are answered by the CORS wrapper; this keeps unmatched OPTIONS from 405ing
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
