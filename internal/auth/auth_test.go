package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/database/memstore"
	"github.com/benvon/study-planner/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testIssuer = "https://issuer.example.com"

type staticKeys struct{ set jwk.Set }

func (s staticKeys) Keys(context.Context) (jwk.Set, error) { return s.set, nil }

// newSigningKey returns a private signing key and a set holding its public half
func newSigningKey(t *testing.T) (jwk.Key, jwk.Set) {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	priv, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("failed to wrap key: %v", err)
	}
	_ = priv.Set(jwk.KeyIDKey, "test-key")
	_ = priv.Set(jwk.AlgorithmKey, jwa.RS256)

	pub, err := jwk.PublicKeyOf(priv)
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		t.Fatalf("failed to add key: %v", err)
	}
	return priv, set
}

func signToken(t *testing.T, key jwk.Key, build func(*jwt.Builder) *jwt.Builder) string {
	t.Helper()

	b := jwt.NewBuilder().
		Issuer(testIssuer).
		Subject("user-123").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Claim("email", "learner@example.com").
		Claim("name", "Learner")
	if build != nil {
		b = build(b)
	}
	tok, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, key))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(signed)
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	key, set := newSigningKey(t)
	otherKey, _ := newSigningKey(t)

	tests := []struct {
		name     string
		audience string
		token    func(t *testing.T) string
		wantErr  bool
	}{
		{
			name:  "valid token",
			token: func(t *testing.T) string { return signToken(t, key, nil) },
		},
		{
			name:     "matching audience",
			audience: "study-planner",
			token: func(t *testing.T) string {
				return signToken(t, key, func(b *jwt.Builder) *jwt.Builder { return b.Audience([]string{"study-planner"}) })
			},
		},
		{
			name:     "wrong audience",
			audience: "study-planner",
			token: func(t *testing.T) string {
				return signToken(t, key, func(b *jwt.Builder) *jwt.Builder { return b.Audience([]string{"other"}) })
			},
			wantErr: true,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				return signToken(t, key, func(b *jwt.Builder) *jwt.Builder { return b.Issuer("https://evil.example.com") })
			},
			wantErr: true,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signToken(t, key, func(b *jwt.Builder) *jwt.Builder { return b.Expiration(time.Now().Add(-time.Hour)) })
			},
			wantErr: true,
		},
		{
			name:    "signed by unknown key",
			token:   func(t *testing.T) string { return signToken(t, otherKey, nil) },
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not-a-jwt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := NewVerifier(staticKeys{set: set}, testIssuer, tt.audience)
			claims, err := v.Verify(context.Background(), tt.token(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if claims.Subject != "user-123" || claims.Email != "learner@example.com" || claims.Name != "Learner" {
				t.Errorf("Verify() claims = %+v", claims)
			}
		})
	}
}

func TestJWKSManager_CachesKeys(t *testing.T) {
	t.Parallel()

	_, set := newSigningKey(t)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	defer server.Close()

	m := NewJWKSManager(server.URL, time.Hour)
	for i := 0; i < 3; i++ {
		keys, err := m.Keys(context.Background())
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		if keys.Len() != 1 {
			t.Fatalf("Keys() len = %d, want 1", keys.Len())
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("JWKS fetched %d times, want 1", got)
	}
}

func TestJWKSManager_FetchError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewJWKSManager(server.URL, 0).Keys(context.Background()); err == nil {
		t.Error("Keys() error = nil, want fetch error")
	}
}

type verifierFunc func(ctx context.Context, token string) (*models.Claims, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*models.Claims, error) {
	return f(ctx, token)
}

func TestJWTAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	store := memstore.New(nil)
	claims := &models.Claims{Subject: "sub-1", Email: "a@example.com", Name: "A", Issuer: testIssuer}
	authn := NewJWTAuthenticator(verifierFunc(func(context.Context, string) (*models.Claims, error) {
		return claims, nil
	}), store.Users(), nil)

	first, err := authn.Authenticate(context.Background(), "token")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if first.ProviderID == nil || *first.ProviderID != "sub-1" || first.Email != "a@example.com" {
		t.Errorf("created user = %+v", first)
	}

	second, err := authn.Authenticate(context.Background(), "token")
	if err != nil {
		t.Fatalf("Authenticate() second error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second call created a new user: %s != %s", second.ID, first.ID)
	}
}

func TestJWTAuthenticator_InvalidToken(t *testing.T) {
	t.Parallel()

	authn := NewJWTAuthenticator(verifierFunc(func(context.Context, string) (*models.Claims, error) {
		return nil, errors.New("bad signature")
	}), memstore.New(nil).Users(), nil)

	if _, err := authn.Authenticate(context.Background(), "token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidToken", err)
	}
}

func TestDevAuthenticator(t *testing.T) {
	t.Parallel()

	store := memstore.New(nil)
	dev, err := store.Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	got, err := NewDevAuthenticator(dev).Authenticate(context.Background(), "")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != memstore.DevUserID {
		t.Errorf("Authenticate() user = %s, want dev user", got.ID)
	}
}

func TestJWTAuthenticator_MissingToken(t *testing.T) {
	t.Parallel()

	authn := NewJWTAuthenticator(verifierFunc(func(context.Context, string) (*models.Claims, error) {
		t.Error("verifier should not be called without a token")
		return nil, nil
	}), memstore.New(nil).Users(), nil)

	if _, err := authn.Authenticate(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Authenticate() error = %v, want ErrMissingToken", err)
	}
}
