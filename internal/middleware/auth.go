package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/study-planner/internal/auth"
	logpkg "github.com/benvon/study-planner/internal/logger"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/request"
	"go.uber.org/zap"
)

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// Auth creates authentication middleware that resolves the bearer token to a user
func Auth(authn auth.Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid Authorization header format", logger)
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if errors.Is(err, auth.ErrMissingToken) {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header", logger)
				return
			}
			if errors.Is(err, auth.ErrInvalidToken) {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", logger)
				return
			}
			if err != nil {
				logger.Error("failed_to_authenticate_user", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "AUTH_FAILED", "Failed to authenticate user", logger)
				return
			}

			ctx := request.WithUser(r.Context(), user)
			ctx = logpkg.WithUserID(ctx, user.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the token of a "Bearer <token>" header. An absent header yields an
// empty token so authenticators that need none can still run.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", true
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func respondError(w http.ResponseWriter, status int, code, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     message,
		"code":      code,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed_to_encode_error_response", zap.Error(err))
	}
}
