package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenCache_EmptyIsAbsent(t *testing.T) {
	cache := NewTokenCache()

	token, ok := cache.Get()
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestTokenCache_SetThenGet(t *testing.T) {
	cache := NewTokenCache()
	cache.Set("abc123", time.Hour)

	token, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)
}

func TestTokenCache_ExpiryElapses(t *testing.T) {
	now := time.Now()
	cache := NewTokenCache()
	cache.now = func() time.Time { return now }

	cache.Set("abc123", time.Minute)

	_, ok := cache.Get()
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = cache.Get()
	assert.False(t, ok, "token should be absent once expiry is reached")
}

func TestTokenCache_DefaultTTL(t *testing.T) {
	now := time.Now()
	cache := NewTokenCache()
	cache.now = func() time.Time { return now }

	cache.Set("abc123", 0)

	now = now.Add(DefaultTokenTTL - time.Second)
	_, ok := cache.Get()
	assert.True(t, ok, "token should still be valid just inside the default TTL")

	now = now.Add(2 * time.Second)
	_, ok = cache.Get()
	assert.False(t, ok)
}

func TestTokenCache_InvalidateBeatsExpiry(t *testing.T) {
	cache := NewTokenCache()
	cache.Set("abc123", time.Hour)

	cache.Invalidate()

	_, ok := cache.Get()
	assert.False(t, ok, "invalidated token must be absent even before expiry")
}
