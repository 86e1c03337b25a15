package metadata

import (
	"sync"
	"time"
)

// DefaultTokenTTL is how long a freshly acquired TVDb token is trusted.
// TVDb v4 tokens are valid for a month.
const DefaultTokenTTL = 30 * 24 * time.Hour

// TokenCache holds the single TVDb bearer token for the process. It has two
// states: absent and valid-until-expiry. A 401 from the API forces it back
// to absent via Invalidate, since server-side revocation can outrun the
// optimistic expiry.
type TokenCache struct {
	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time // overridable in tests
}

// NewTokenCache returns an empty cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{now: time.Now}
}

// Get returns the cached token, or ok=false when the caller must acquire a
// new one.
func (c *TokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || !c.now().Before(c.expiry) {
		return "", false
	}
	return c.token, true
}

// Set stores a freshly acquired token. A non-positive ttl falls back to
// DefaultTokenTTL. Concurrent acquirers may race here; last writer wins,
// which is safe because every stored token is valid.
func (c *TokenCache) Set(token string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiry = c.now().Add(ttl)
}

// Invalidate discards the cached token so the next Get forces re-acquisition.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiry = time.Time{}
}
