package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionCacheTTLExpiry(t *testing.T) {
	cache := newSessionCache(time.Minute)
	now := time.Unix(1000, 0)
	cache.now = func() time.Time { return now }

	session := &Session{ID: "a"}
	cache.put("key", 1, session)

	got, ok := cache.get("key", 1)
	assert.True(t, ok)
	assert.Equal(t, "a", got.ID)

	now = now.Add(2 * time.Minute)
	_, ok = cache.get("key", 1)
	assert.False(t, ok)
}

func TestSessionCacheGenerationMismatchDropsAll(t *testing.T) {
	cache := newSessionCache(time.Minute)
	cache.put("key", 1, &Session{ID: "a"})

	_, ok := cache.get("key", 2)
	assert.False(t, ok)

	// The old generation is gone too.
	_, ok = cache.get("key", 1)
	assert.False(t, ok)
}

func TestCacheKeyNormalization(t *testing.T) {
	a := cacheKey([]string{" Drone "}, Options{Markets: []string{"US", "KR"}})
	b := cacheKey([]string{"drone"}, Options{Markets: []string{"kr", "us"}})
	assert.Equal(t, a, b)

	// Keyword order matters, filter order does not.
	c := cacheKey([]string{"drone", "ai"}, Options{})
	d := cacheKey([]string{"ai", "drone"}, Options{})
	assert.NotEqual(t, c, d)
}

func TestCacheKeySeparatorInKeyword(t *testing.T) {
	// A keyword containing the separator must not alias a split seed
	// list, or one query would be served another query's session.
	assert.NotEqual(t,
		cacheKey([]string{"a|b"}, Options{}),
		cacheKey([]string{"a", "b"}, Options{}))
	assert.NotEqual(t,
		cacheKey([]string{"drone|x"}, Options{}),
		cacheKey([]string{"drone", "x"}, Options{}))
}
