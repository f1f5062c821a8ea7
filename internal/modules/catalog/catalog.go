package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Catalog holds the canonical security universe and serves read-only,
// indexed snapshots of it. It is safe for concurrent use: readers work
// against an immutable snapshot while Build swaps in a new one.
type Catalog struct {
	mu        sync.RWMutex
	snap      *Snapshot
	ready     chan struct{}
	readyOnce sync.Once
	log       zerolog.Logger
}

// Snapshot is an immutable, fully indexed view of the security universe.
// Record order is catalog insertion order, which downstream ranking uses
// as the deterministic tie-breaker.
type Snapshot struct {
	records    []Security
	byKey      map[string]int
	bySymbol   map[string][]int
	terms      map[string][]int
	generation uint64
}

// New creates an empty catalog. It is not ready until Build succeeds.
func New(log zerolog.Logger) *Catalog {
	return &Catalog{
		ready: make(chan struct{}),
		log:   log.With().Str("component", "catalog").Logger(),
	}
}

// Build constructs a new snapshot from records and atomically swaps it in.
// A duplicate (market, symbol) pair or an invalid record fails the build
// and leaves the previous snapshot (if any) in place.
func (c *Catalog) Build(records []Security) error {
	snap := &Snapshot{
		records:  make([]Security, 0, len(records)),
		byKey:    make(map[string]int, len(records)),
		bySymbol: make(map[string][]int),
		terms:    make(map[string][]int),
	}

	for _, rec := range records {
		rec.Normalize()

		if rec.Symbol == "" || rec.Market == "" {
			return &BuildError{Market: rec.Market, Symbol: rec.Symbol, Reason: "market and symbol are required"}
		}
		if rec.MarketCap < 0 {
			return &BuildError{Market: rec.Market, Symbol: rec.Symbol, Reason: "market cap must not be negative"}
		}

		key := rec.Key()
		if _, exists := snap.byKey[key]; exists {
			return &BuildError{Market: rec.Market, Symbol: rec.Symbol, Reason: "duplicate security"}
		}

		idx := len(snap.records)
		snap.records = append(snap.records, rec)
		snap.byKey[key] = idx
		snap.bySymbol[rec.Symbol] = append(snap.bySymbol[rec.Symbol], idx)

		for _, term := range indexTerms(rec) {
			postings := snap.terms[term]
			if len(postings) > 0 && postings[len(postings)-1] == idx {
				continue // already posted for this record
			}
			snap.terms[term] = append(postings, idx)
		}
	}

	c.mu.Lock()
	prev := uint64(0)
	if c.snap != nil {
		prev = c.snap.generation
	}
	snap.generation = prev + 1
	c.snap = snap
	c.mu.Unlock()

	c.readyOnce.Do(func() { close(c.ready) })

	c.log.Info().
		Int("records", len(snap.records)).
		Int("terms", len(snap.terms)).
		Uint64("generation", snap.generation).
		Msg("Catalog built")

	return nil
}

// Ready reports whether the catalog has been built at least once
func (c *Catalog) Ready() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// AwaitReady blocks until the catalog is ready or the context expires.
// Callers typically bound the wait with a context timeout and treat the
// resulting NotReadyError as fail-fast.
func (c *Catalog) AwaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return &NotReadyError{}
	}
}

// Snapshot returns the current immutable snapshot
func (c *Catalog) Snapshot() (*Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()

	if snap == nil {
		return nil, &NotReadyError{}
	}
	return snap, nil
}

// Generation returns the current snapshot generation, 0 if never built
func (c *Catalog) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return 0
	}
	return c.snap.generation
}

// Len returns the number of records in the snapshot
func (s *Snapshot) Len() int {
	return len(s.records)
}

// At returns the record at insertion position i
func (s *Snapshot) At(i int) Security {
	return s.records[i]
}

// All returns the records in insertion order. The slice must be treated
// as read-only.
func (s *Snapshot) All() []Security {
	return s.records
}

// Generation returns the snapshot's build generation
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// LookupIn returns the security for an exact (market, symbol) pair
func (s *Snapshot) LookupIn(market, symbol string) (Security, bool) {
	key := strings.ToUpper(strings.TrimSpace(market)) + ":" + strings.ToUpper(strings.TrimSpace(symbol))
	idx, ok := s.byKey[key]
	if !ok {
		return Security{}, false
	}
	return s.records[idx], true
}

// Lookup returns the security for a symbol across all markets. If the
// symbol exists on more than one market the lookup fails so the caller
// can disambiguate explicitly.
func (s *Snapshot) Lookup(symbol string) (Security, bool) {
	postings := s.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	if len(postings) != 1 {
		return Security{}, false
	}
	return s.records[postings[0]], true
}

// CandidatesForTerm returns the records indexed under an exact term,
// in insertion order, without any scoring.
func (s *Snapshot) CandidatesForTerm(term string) []Security {
	postings := s.terms[strings.ToLower(strings.TrimSpace(term))]
	if len(postings) == 0 {
		return nil
	}
	out := make([]Security, 0, len(postings))
	for _, idx := range postings {
		out = append(out, s.records[idx])
	}
	return out
}

// indexTerms derives the inverted-index terms for a record: the symbol,
// the search terms, sector, industry, and the whole plus tokenized forms
// of the canonical and localized names.
func indexTerms(rec Security) []string {
	var terms []string

	add := func(raw string) {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term != "" {
			terms = append(terms, term)
		}
	}

	add(rec.Symbol)
	add(rec.Name)
	for _, tok := range strings.Fields(rec.Name) {
		add(tok)
	}
	for _, name := range rec.LocalizedNames {
		add(name)
		for _, tok := range strings.Fields(name) {
			add(tok)
		}
	}
	add(rec.Sector)
	add(rec.Industry)
	for _, term := range rec.SearchTerms {
		add(term)
	}

	return terms
}
