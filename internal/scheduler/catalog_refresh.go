package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-discovery/internal/events"
	"github.com/aristath/stock-discovery/internal/modules/catalog"
)

// BoostLoader loads the priority boost table from storage.
type BoostLoader interface {
	Load(ctx context.Context) (map[string][]string, error)
}

// BoostSink receives a freshly loaded boost table.
type BoostSink interface {
	Replace(entries map[string][]string)
}

// CacheInvalidator drops discovery sessions cached against the old
// catalog generation.
type CacheInvalidator interface {
	InvalidateCache()
}

// CatalogRefreshJob reloads the security catalog and the boost table
// from their data sources. A failed load leaves the previous snapshot
// serving; readers never observe a partially built catalog.
type CatalogRefreshJob struct {
	log     zerolog.Logger
	source  catalog.DataSource
	catalog *catalog.Catalog
	boosts  BoostLoader
	sink    BoostSink
	cache   CacheInvalidator
	events  *events.Manager
	timeout time.Duration
}

// CatalogRefreshConfig holds configuration for the catalog refresh job
type CatalogRefreshConfig struct {
	Log     zerolog.Logger
	Source  catalog.DataSource
	Catalog *catalog.Catalog
	Boosts  BoostLoader
	Sink    BoostSink
	Cache   CacheInvalidator
	Events  *events.Manager
	Timeout time.Duration
}

// NewCatalogRefreshJob creates a new catalog refresh job
func NewCatalogRefreshJob(cfg CatalogRefreshConfig) *CatalogRefreshJob {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CatalogRefreshJob{
		log:     cfg.Log.With().Str("job", "catalog_refresh").Logger(),
		source:  cfg.Source,
		catalog: cfg.Catalog,
		boosts:  cfg.Boosts,
		sink:    cfg.Sink,
		cache:   cfg.Cache,
		events:  cfg.Events,
		timeout: timeout,
	}
}

// Name returns the job name
func (j *CatalogRefreshJob) Name() string {
	return "catalog_refresh"
}

// Run reloads securities and boosts and swaps the catalog snapshot.
func (j *CatalogRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if j.events != nil {
		j.events.Emit(events.CatalogRebuildStart, "scheduler", nil)
	}

	records, err := j.source.Load(ctx)
	if err != nil {
		j.emitFailure(err)
		return fmt.Errorf("loading securities: %w", err)
	}

	if err := j.catalog.Build(records); err != nil {
		j.emitFailure(err)
		return fmt.Errorf("building catalog: %w", err)
	}

	if j.boosts != nil && j.sink != nil {
		entries, err := j.boosts.Load(ctx)
		if err != nil {
			// The catalog swap already happened; serve it with the old
			// boost table rather than failing the whole refresh.
			j.log.Error().Err(err).Msg("Boost table reload failed, keeping previous table")
		} else {
			j.sink.Replace(entries)
		}
	}

	if j.cache != nil {
		j.cache.InvalidateCache()
	}

	if j.events != nil {
		j.events.Emit(events.CatalogRebuildComplete, "scheduler", map[string]interface{}{
			"securities": len(records),
			"generation": j.catalog.Generation(),
		})
	}
	j.log.Info().Int("securities", len(records)).Msg("Catalog refreshed")
	return nil
}

func (j *CatalogRefreshJob) emitFailure(err error) {
	if j.events != nil {
		j.events.Emit(events.CatalogRebuildFailed, "scheduler", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
