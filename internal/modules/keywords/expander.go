package keywords

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-discovery/internal/events"
)

// DefaultExpansionCap bounds the expanded keyword set
const DefaultExpansionCap = 15

// DefaultSemanticTimeout bounds a single semantic service call
const DefaultSemanticTimeout = 5 * time.Second

// Expander turns a small seed keyword set into a larger, semantically
// related one. Static taxonomy expansion always runs; an optional
// semantic service enriches the result and is never allowed to fail the
// expansion.
type Expander struct {
	taxonomy *Taxonomy
	semantic SemanticExpansionService // nil disables enrichment
	events   *events.Manager
	timeout  time.Duration
	cap      int
	log      zerolog.Logger
}

// ExpanderOption configures an Expander
type ExpanderOption func(*Expander)

// WithSemanticService enables semantic enrichment
func WithSemanticService(svc SemanticExpansionService) ExpanderOption {
	return func(e *Expander) {
		e.semantic = svc
	}
}

// WithEventManager enables event emission on semantic fallbacks
func WithEventManager(manager *events.Manager) ExpanderOption {
	return func(e *Expander) {
		e.events = manager
	}
}

// WithSemanticTimeout overrides the per-call semantic timeout
func WithSemanticTimeout(timeout time.Duration) ExpanderOption {
	return func(e *Expander) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithExpansionCap overrides the expanded keyword cap
func WithExpansionCap(cap int) ExpanderOption {
	return func(e *Expander) {
		if cap > 0 {
			e.cap = cap
		}
	}
}

// NewExpander creates a new keyword expander
func NewExpander(taxonomy *Taxonomy, log zerolog.Logger, opts ...ExpanderOption) *Expander {
	e := &Expander{
		taxonomy: taxonomy,
		timeout:  DefaultSemanticTimeout,
		cap:      DefaultExpansionCap,
		log:      log.With().Str("component", "expander").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand produces the expanded keyword set for the given seeds. Seed
// validation (count, blanks) is the pipeline's responsibility; this
// method never returns an error. Static expansion results are always a
// subset of the enriched result.
func (e *Expander) Expand(ctx context.Context, seeds []string, ec Context) ExpansionResult {
	original := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		original = append(original, strings.TrimSpace(seed))
	}

	expanded := newKeywordSet(e.cap)
	categories := make(map[string][]string)

	// Originals first so they survive the cap
	for _, seed := range original {
		expanded.add(seed)
	}

	for _, seed := range original {
		for _, entry := range e.taxonomy.Match(seed) {
			expanded.add(entry.Keyword)
			for _, syn := range entry.Synonyms {
				expanded.add(syn)
			}
			categories[entry.Category] = mergeKeywords(categories[entry.Category], append([]string{entry.Keyword}, entry.Synonyms...))
		}
	}

	result := ExpansionResult{
		Original:   original,
		Expanded:   expanded.values(),
		Categories: categories,
	}

	if e.semantic == nil {
		return result
	}

	semCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	enrichment, err := e.semantic.Expand(semCtx, original, ec)
	if err != nil {
		e.log.Warn().Err(err).Msg("Semantic expansion failed, using static taxonomy only")
		if e.events != nil {
			e.events.Emit(events.SemanticFallback, "keywords", map[string]interface{}{
				"seeds": len(original),
				"error": err.Error(),
			})
		}
		return result
	}

	for _, kw := range enrichment.Keywords {
		expanded.add(kw)
	}
	for category, kws := range enrichment.Categories {
		categories[category] = mergeKeywords(categories[category], kws)
	}

	result.Expanded = expanded.values()
	result.Enhanced = true
	result.Advisory = enrichment.Advisory

	e.log.Debug().
		Int("original", len(original)).
		Int("expanded", len(result.Expanded)).
		Msg("Semantic expansion applied")

	return result
}

// keywordSet dedupes keywords case-insensitively, preserving first-seen
// casing and insertion order, bounded by cap.
type keywordSet struct {
	seen    map[string]bool
	ordered []string
	cap     int
}

func newKeywordSet(cap int) *keywordSet {
	return &keywordSet{
		seen: make(map[string]bool),
		cap:  cap,
	}
}

func (s *keywordSet) add(keyword string) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || len(s.ordered) >= s.cap {
		return
	}
	key := strings.ToLower(keyword)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.ordered = append(s.ordered, keyword)
}

func (s *keywordSet) values() []string {
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// mergeKeywords appends additions to existing, deduping case-insensitively
func mergeKeywords(existing, additions []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, kw := range existing {
		seen[strings.ToLower(kw)] = true
	}
	for _, kw := range additions {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		existing = append(existing, kw)
	}
	return existing
}
