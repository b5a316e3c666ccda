package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/progress"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"go.uber.org/zap"
)

func newMockServer(t *testing.T) http.Handler {
	t.Helper()

	log := zap.NewNop()
	b, err := newMockBackend(context.Background(), log)
	if err != nil {
		t.Fatalf("newMockBackend() error = %v", err)
	}
	cfg := config.Default()
	cfg.UseMockStorage = true
	authn, err := newAuthenticator(cfg, b, log)
	if err != nil {
		t.Fatalf("newAuthenticator() error = %v", err)
	}

	svc := calendar.NewService(b.schedules, b.journeys, b.conflicts, b.todos,
		calendar.NewPreferencesService(b.preferences, log), log)
	jobQueue := queue.NewMemoryQueue(8, log)
	t.Cleanup(func() { _ = jobQueue.Close() })

	router, err := newRouter(routerDeps{
		backend:   b,
		calendar:  svc,
		progress:  progress.NewService(b.paths, b.todos, log),
		assistant: ai.NewAssistantService(newAIProvider(cfg, log, false), svc, nil, log),
		authn:     authn,
		jobQueue:  jobQueue,
	}, log)
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}
	return middleware.NewCORSReloader(b.cors, "http://localhost:3000", log, 0).Middleware()(router)
}

func TestRouter_MockMode(t *testing.T) {
	t.Parallel()

	handler := newMockServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "basic health", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "extended health with queue", method: http.MethodGet, path: "/healthz?mode=extended", wantStatus: http.StatusOK},
		{name: "openapi document", method: http.MethodGet, path: "/api/v1/openapi.yaml", wantStatus: http.StatusOK},
		{name: "dev user", method: http.MethodGet, path: "/api/v1/auth/me", wantStatus: http.StatusOK},
		{name: "unknown path", method: http.MethodGet, path: "/api/v1/paths/00000000-0000-0000-0000-000000000000", wantStatus: http.StatusNotFound},
		{name: "preferences default", method: http.MethodGet, path: "/api/v1/preferences", wantStatus: http.StatusOK},
		{
			name:       "create schedule",
			method:     http.MethodPost,
			path:       "/api/v1/schedules",
			body:       `{"scheduled_date":"2030-01-07","start_time":"09:00","duration_minutes":60,"task_type":"video","title":"Watch the tour"}`,
			wantStatus: http.StatusCreated,
		},
		{name: "non json body", method: http.MethodPost, path: "/api/v1/todos", body: "title=x", wantStatus: http.StatusUnsupportedMediaType},
		{name: "assistant fallback", method: http.MethodPost, path: "/api/v1/assistant/chat", body: `{"message":"what next?"}`, wantStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				if strings.HasPrefix(tt.body, "{") {
					req.Header.Set("Content-Type", "application/json")
				} else {
					req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				}
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestRouter_ResponseHeaders(t *testing.T) {
	t.Parallel()

	handler := newMockServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("X-Request-ID", "trace-me")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "trace-me" {
		t.Errorf("X-Request-ID = %q, want trace-me", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success || body.Data.User.Email == "" {
		t.Errorf("response = %s", rr.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	handler := newMockServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/schedules", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if rr.Code >= 400 {
		t.Errorf("preflight status = %d", rr.Code)
	}
}

func TestNewAuthenticator_RequiresIssuerOutsideMockMode(t *testing.T) {
	t.Parallel()

	b, err := newMockBackend(context.Background(), zap.NewNop())
	if err != nil {
		t.Fatalf("newMockBackend() error = %v", err)
	}
	cfg := config.Default()
	cfg.DatabaseURL = "postgres://x"

	if _, err := newAuthenticator(cfg, b, zap.NewNop()); err == nil {
		t.Error("expected an error without OIDC settings")
	}

	cfg.OIDCIssuer = "https://issuer.example.com"
	cfg.OIDCJWKSURL = "https://issuer.example.com/jwks"
	if _, err := newAuthenticator(cfg, b, zap.NewNop()); err != nil {
		t.Errorf("newAuthenticator() error = %v", err)
	}
}

func TestNewAIProvider(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	if p := newAIProvider(cfg, zap.NewNop(), false); p != nil {
		t.Error("expected no provider without an API key")
	}

	cfg.OpenAIKey = "sk-test-key-1234"
	if p := newAIProvider(cfg, zap.NewNop(), false); p == nil {
		t.Error("expected an openai provider")
	}

	cfg.AIProvider = "unknown"
	if p := newAIProvider(cfg, zap.NewNop(), false); p != nil {
		t.Error("expected no provider for an unregistered name")
	}
}
