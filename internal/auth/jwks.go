package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultJWKSTTL is how long fetched keys are reused before refetching
const DefaultJWKSTTL = time.Hour

// KeySource supplies the key set tokens are verified against
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// JWKSManager fetches a JWKS document and caches it for a TTL
type JWKSManager struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu      sync.RWMutex
	keys    jwk.Set
	expires time.Time
}

var _ KeySource = (*JWKSManager)(nil)

// NewJWKSManager creates a JWKS manager for url
func NewJWKSManager(url string, ttl time.Duration) *JWKSManager {
	if ttl <= 0 {
		ttl = DefaultJWKSTTL
	}
	return &JWKSManager{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Keys returns the cached key set, refetching it once it has expired
func (m *JWKSManager) Keys(ctx context.Context) (jwk.Set, error) {
	m.mu.RLock()
	if m.keys != nil && time.Now().Before(m.expires) {
		keys := m.keys
		m.mu.RUnlock()
		return keys, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// another goroutine may have refreshed while we waited
	if m.keys != nil && time.Now().Before(m.expires) {
		return m.keys, nil
	}

	keys, err := jwk.Fetch(ctx, m.url, jwk.WithHTTPClient(m.client))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	m.keys = keys
	m.expires = time.Now().Add(m.ttl)
	return keys, nil
}
