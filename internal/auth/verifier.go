package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const clockSkew = 30 * time.Second

// Verifier verifies JWT access tokens against a key source
type Verifier struct {
	keys     KeySource
	issuer   string
	audience string
}

// NewVerifier creates a new JWT verifier. An empty audience skips the audience check.
func NewVerifier(keys KeySource, issuer, audience string) *Verifier {
	return &Verifier{keys: keys, issuer: issuer, audience: audience}
}

// Verify checks the token signature, expiry, issuer and audience and extracts its claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.Claims, error) {
	keys, err := v.keys.Keys(ctx)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAcceptableSkew(clockSkew),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}
	if token.Subject() == "" {
		return nil, fmt.Errorf("token missing subject claim")
	}

	claims := &models.Claims{
		Subject: token.Subject(),
		Issuer:  token.Issuer(),
	}
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}
	if name, ok := token.Get("name"); ok {
		if s, ok := name.(string); ok {
			claims.Name = s
		}
	}
	return claims, nil
}
