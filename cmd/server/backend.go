package main

import (
	"context"
	"fmt"

	"github.com/benvon/study-planner/internal/auth"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/database/memstore"
	"github.com/benvon/study-planner/internal/handlers"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/services/ai"
	"go.uber.org/zap"
)

// backend is the storage the API runs against: Postgres, or the seeded in-memory store in mock mode
type backend struct {
	schedules   database.ScheduleRepositoryInterface
	journeys    database.JourneyRepositoryInterface
	conflicts   database.ConflictRepositoryInterface
	todos       database.TodoRepositoryInterface
	preferences database.PreferencesRepositoryInterface
	paths       database.LearningPathRepositoryInterface
	users       database.UserRepositoryInterface
	cors        database.CorsConfigRepositoryInterface
	ratelimit   database.RatelimitConfigRepositoryInterface

	// db is nil in mock mode so the extended health check reports the database as disabled
	db handlers.Pinger
	// devUser is the seeded user mock mode authenticates every request as
	devUser *models.User
	close   func() error
}

func newMockBackend(ctx context.Context, log *zap.Logger) (*backend, error) {
	store := memstore.New(log)
	user, err := store.Seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed mock store: %w", err)
	}
	return &backend{
		schedules:   store.Schedules(),
		journeys:    store.Journeys(),
		conflicts:   store.Conflicts(),
		todos:       store.Todos(),
		preferences: store.Preferences(),
		paths:       store.LearningPaths(),
		users:       store.Users(),
		cors:        store.CorsConfig(),
		ratelimit:   store.RatelimitConfig(),
		devUser:     user,
		close:       func() error { return nil },
	}, nil
}

func newPostgresBackend(ctx context.Context, databaseURL string) (*backend, error) {
	db, err := database.New(databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &backend{
		schedules:   database.NewScheduleRepository(db),
		journeys:    database.NewJourneyRepository(db),
		conflicts:   database.NewConflictRepository(db),
		todos:       database.NewTodoRepository(db),
		preferences: database.NewPreferencesRepository(db),
		paths:       database.NewLearningPathRepository(db),
		users:       database.NewUserRepository(db),
		cors:        database.NewCorsConfigRepository(db),
		ratelimit:   database.NewRatelimitConfigRepository(db),
		db:          db,
		close:       db.Close,
	}, nil
}

// newAuthenticator resolves bearer tokens against the OIDC issuer, or accepts every request as
// the seeded user when mock mode runs without an issuer
func newAuthenticator(cfg *config.Config, b *backend, log *zap.Logger) (auth.Authenticator, error) {
	if cfg.AuthMode() == "dev" {
		if b.devUser == nil {
			return nil, fmt.Errorf("dev authentication needs a seeded user")
		}
		log.Warn("dev_authentication_enabled",
			zap.String("user_id", b.devUser.ID.String()),
			zap.String("email", b.devUser.Email),
		)
		return auth.NewDevAuthenticator(b.devUser), nil
	}

	if cfg.OIDCJWKSURL == "" || cfg.OIDCIssuer == "" {
		return nil, fmt.Errorf("OIDC_JWKS_URL and OIDC_ISSUER are required for token authentication")
	}
	keys := auth.NewJWKSManager(cfg.OIDCJWKSURL, auth.DefaultJWKSTTL)
	verifier := auth.NewVerifier(keys, cfg.OIDCIssuer, cfg.OIDCAudience)
	return auth.NewJWTAuthenticator(verifier, b.users, log), nil
}

// newAIProvider returns nil when no API key is configured; the assistant then answers from
// its fallbacks
func newAIProvider(cfg *config.Config, log *zap.Logger, debugMode bool) ai.Provider {
	if cfg.OpenAIKey == "" {
		log.Info("ai_provider_not_configured_using_fallbacks")
		return nil
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry, log, debugMode)
	provider, err := registry.GetProvider(cfg.AIProvider, map[string]string{
		"api_key":     cfg.OpenAIKey,
		"base_url":    cfg.AIBaseURL,
		"model":       cfg.AIModel,
		"temperature": cfg.AITemperature,
		"max_tokens":  fmt.Sprint(cfg.AIMaxTokens),
	})
	if err != nil {
		log.Warn("failed_to_create_ai_provider_using_fallbacks",
			zap.String("provider", cfg.AIProvider),
			zap.Error(err),
		)
		return nil
	}
	return provider
}
