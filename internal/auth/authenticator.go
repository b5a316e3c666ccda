// Package auth turns bearer tokens into planner users.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when a token fails verification
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// TokenVerifier verifies a raw token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Claims, error)
}

// JWTAuthenticator verifies tokens and gets or creates the matching user
type JWTAuthenticator struct {
	verifier TokenVerifier
	users    database.UserRepositoryInterface
	logger   *zap.Logger
}

var (
	_ Authenticator = (*JWTAuthenticator)(nil)
	_ Authenticator = (*DevAuthenticator)(nil)
	_ TokenVerifier = (*Verifier)(nil)
)

// NewJWTAuthenticator creates a token authenticator
func NewJWTAuthenticator(verifier TokenVerifier, users database.UserRepositoryInterface, logger *zap.Logger) *JWTAuthenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTAuthenticator{verifier: verifier, users: users, logger: logger}
}

// Authenticate verifies token and returns the user for its subject, creating it on first sight
func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, err := a.verifier.Verify(ctx, token)
	if err != nil {
		a.logger.Debug("token_verification_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := a.users.GetByProviderID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	subject, name := claims.Subject, claims.Name
	user = &models.User{
		ID:            uuid.New(),
		Email:         claims.Email,
		ProviderID:    &subject,
		EmailVerified: true,
	}
	if name != "" {
		user.Name = &name
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	a.logger.Info("user_created", zap.String("user_id", user.ID.String()))
	return user, nil
}

// DevAuthenticator authenticates every request as one fixed user. It backs mock mode.
type DevAuthenticator struct {
	user *models.User
}

// NewDevAuthenticator creates an authenticator that always returns user
func NewDevAuthenticator(user *models.User) *DevAuthenticator {
	return &DevAuthenticator{user: user}
}

// Authenticate ignores the token, which may be empty, and returns the development user
func (a *DevAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	u := *a.user
	return &u, nil
}
