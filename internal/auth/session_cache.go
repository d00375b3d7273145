package auth

import (
	"context"
	"encoding/json"
	"time"

	"gatehouse/internal/cache"
)

const (
	sessionKeyPrefix = "session:"

	// sessionCacheTTL bounds how long a gate lookup may be served from
	// cache. Logout evicts eagerly; this cap covers rows deleted behind
	// the API's back.
	sessionCacheTTL = 60 * time.Second
)

// CachedIdentity is the redis payload for a resolved session.
type CachedIdentity struct {
	UserID    uint      `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionCacheInterface defines the session lookup cache operations.
type SessionCacheInterface interface {
	Store(ctx context.Context, token string, identity CachedIdentity) error
	Get(ctx context.Context, token string) (*CachedIdentity, error)
	Delete(ctx context.Context, token string) error
}

// SessionCache keeps resolved session identities in Redis so the gate can
// skip the database on hot tokens. It is strictly an accelerator: misses
// and redis failures fall through to the store.
type SessionCache struct {
	cache *cache.Client
}

// Ensure SessionCache implements SessionCacheInterface
var _ SessionCacheInterface = (*SessionCache)(nil)

// NewSessionCache creates a new session cache.
func NewSessionCache(cache *cache.Client) *SessionCache {
	return &SessionCache{cache: cache}
}

// Store caches the identity under the token. The TTL never extends past the
// session expiry, so stale rows cannot be revived from cache.
func (s *SessionCache) Store(ctx context.Context, token string, identity CachedIdentity) error {
	ttl := sessionCacheTTL
	if remaining := time.Until(identity.ExpiresAt); remaining < ttl {
		if remaining <= 0 {
			return nil
		}
		ttl = remaining
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, sessionKeyPrefix+token, payload, ttl)
}

// Get returns the cached identity or nil on miss.
func (s *SessionCache) Get(ctx context.Context, token string) (*CachedIdentity, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if err != nil || data == nil {
		return nil, nil
	}

	var identity CachedIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		// treat a corrupt entry as a miss
		return nil, nil
	}
	return &identity, nil
}

// Delete evicts the cached identity for a token.
func (s *SessionCache) Delete(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+token)
}
