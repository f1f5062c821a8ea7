package discovery

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// sessionCache absorbs bursty duplicate queries. Entries expire after a
// short TTL and the whole cache is dropped whenever the catalog
// generation moves, so a rebuild can never serve stale candidates.
type sessionCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	generation uint64
	entries    map[string]cacheEntry
	now        func() time.Time
}

type cacheEntry struct {
	session  *Session
	storedAt time.Time
}

func newSessionCache(ttl time.Duration) *sessionCache {
	return &sessionCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// cacheKey normalizes the request into a lookup key. Keywords keep
// their order (it affects first-seen casing during expansion); filter
// slices are sorted because their order never changes the result.
// Each seed is length-prefixed so no keyword content can collide with
// the separators.
func cacheKey(seeds []string, opts Options) string {
	var b strings.Builder
	for _, s := range seeds {
		seed := strings.ToLower(strings.TrimSpace(s))
		fmt.Fprintf(&b, "%d:%s|", len(seed), seed)
	}
	b.WriteString("m:")
	b.WriteString(strings.Join(sortedLower(opts.Markets), ","))
	b.WriteString(";s:")
	b.WriteString(strings.Join(sortedLower(opts.Sectors), ","))
	fmt.Fprintf(&b, ";n:%d;r:%d;rp:%s;mp:%g;mc:%g;t:%t%t%t;mm:%d;mq:%d;sb:%s;bd:%t",
		opts.MaxResults, opts.MinRelevance, strings.ToLower(opts.RiskProfile),
		opts.MaxPrice, opts.MaxMarketCap,
		opts.ShowPennyStocks, opts.ShowMemeStocks, opts.ShowQuantPicks,
		opts.MinMemeScore, opts.MinQuantScore, opts.SortBy, opts.IncludeBreakdown)
	return b.String()
}

func sortedLower(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	sort.Strings(out)
	return out
}

// get returns a cached session when the key is fresh and was produced
// against the given catalog generation.
func (c *sessionCache) get(key string, generation uint64) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		c.entries = make(map[string]cacheEntry)
		c.generation = generation
		return nil, false
	}
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.session, true
}

func (c *sessionCache) put(key string, generation uint64, session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		c.entries = make(map[string]cacheEntry)
		c.generation = generation
	}
	c.entries[key] = cacheEntry{session: session, storedAt: c.now()}
}

// Invalidate drops every cached session. The catalog refresh job calls
// this after a successful rebuild.
func (c *sessionCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
