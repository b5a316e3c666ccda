package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	defaultFrontendOrigin = "http://localhost:3000"
	defaultCORSMaxAge     = 86400
)

// CORSReloader applies the CORS policy stored in the runtime config and refreshes it on an
// interval. Wrap the whole router with it so preflights never reach routing.
type CORSReloader struct {
	repo     database.CorsConfigRepositoryInterface
	fallback string
	log      *zap.Logger
	interval time.Duration
	once     sync.Once
	mu       sync.RWMutex
	policy   *cors.Cors
	origins  []string
}

// NewCORSReloader creates a reloader; fallback (usually FRONTEND_URL) is used while nothing is stored
func NewCORSReloader(repo database.CorsConfigRepositoryInterface, fallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(fallback),
		log:      log,
		interval: reloadInterval,
	}
}

// Middleware returns the CORS middleware. The first call loads the policy.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	r.once.Do(func() { r.load(context.Background()) })
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.mu.RLock()
			policy := r.policy
			r.mu.RUnlock()
			policy.Handler(next).ServeHTTP(w, req)
		})
	}
}

// Start reloads the policy every interval until ctx is cancelled
func (r *CORSReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.load(ctx)
		}
	}
}

// AllowedOrigins returns the origins currently accepted
func (r *CORSReloader) AllowedOrigins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.origins...)
}

func (r *CORSReloader) load(ctx context.Context) {
	stored, err := r.repo.Get(ctx)
	if err != nil {
		r.log.Warn("failed_to_load_cors_config_using_fallback", zap.Error(err))
		stored = nil
	}
	opts := corsOptions(stored, r.fallback)

	r.mu.Lock()
	r.policy = cors.New(opts)
	r.origins = opts.AllowedOrigins
	r.mu.Unlock()
	r.log.Debug("cors_config_loaded", zap.Strings("allowed_origins", opts.AllowedOrigins))
}

// corsOptions builds the rs/cors options from the stored config, or from fallback when nothing
// is stored
func corsOptions(stored *models.CorsConfig, fallback string) cors.Options {
	opts := cors.Options{
		AllowCredentials: true,
		MaxAge:           defaultCORSMaxAge,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch,
			http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	}
	raw := fallback
	if stored != nil {
		raw = stored.AllowedOrigins
		opts.AllowCredentials = stored.AllowCredentials
		opts.MaxAge = stored.MaxAge
	}
	opts.AllowedOrigins = database.AllowedOriginsSlice(raw)
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{defaultFrontendOrigin}
	}
	return opts
}
