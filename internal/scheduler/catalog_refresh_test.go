package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stock-discovery/internal/modules/catalog"
	"github.com/aristath/stock-discovery/internal/modules/relevance"
)

type stubSource struct {
	records []catalog.Security
	err     error
}

func (s *stubSource) Load(_ context.Context) ([]catalog.Security, error) {
	return s.records, s.err
}

type stubBoostLoader struct {
	entries map[string][]string
	err     error
}

func (s *stubBoostLoader) Load(_ context.Context) (map[string][]string, error) {
	return s.entries, s.err
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateCache() { c.calls++ }

func TestCatalogRefreshSwapsSnapshotAndBoosts(t *testing.T) {
	log := zerolog.Nop()
	cat := catalog.New(log)
	boosts := relevance.NewBoostTable()
	invalidator := &countingInvalidator{}

	job := NewCatalogRefreshJob(CatalogRefreshConfig{
		Log: log,
		Source: &stubSource{records: []catalog.Security{
			{Market: "US", Symbol: "UAVS", Name: "AgEagle Aerial Systems Inc", Currency: "USD"},
		}},
		Catalog: cat,
		Boosts:  &stubBoostLoader{entries: map[string][]string{"UAVS": {"drone"}}},
		Sink:    boosts,
		Cache:   invalidator,
	})

	require.NoError(t, job.Run())

	snap, err := cat.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
	assert.True(t, boosts.Contains("UAVS"))
	assert.Equal(t, 1, invalidator.calls)
}

func TestCatalogRefreshSourceFailureKeepsPreviousSnapshot(t *testing.T) {
	log := zerolog.Nop()
	cat := catalog.New(log)
	require.NoError(t, cat.Build([]catalog.Security{
		{Market: "US", Symbol: "AVAV", Name: "AeroVironment Inc", Currency: "USD"},
	}))
	generation := cat.Generation()
	invalidator := &countingInvalidator{}

	job := NewCatalogRefreshJob(CatalogRefreshConfig{
		Log:     log,
		Source:  &stubSource{err: errors.New("db locked")},
		Catalog: cat,
		Cache:   invalidator,
	})

	require.Error(t, job.Run())

	snap, err := cat.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, generation, cat.Generation())
	assert.Zero(t, invalidator.calls, "cache must survive a failed refresh")
}

func TestCatalogRefreshBoostFailureKeepsPreviousTable(t *testing.T) {
	log := zerolog.Nop()
	cat := catalog.New(log)
	boosts := relevance.NewBoostTable()
	boosts.Replace(map[string][]string{"GME": {"meme"}})

	job := NewCatalogRefreshJob(CatalogRefreshConfig{
		Log: log,
		Source: &stubSource{records: []catalog.Security{
			{Market: "US", Symbol: "GME", Name: "GameStop Corp", Currency: "USD"},
		}},
		Catalog: cat,
		Boosts:  &stubBoostLoader{err: errors.New("db locked")},
		Sink:    boosts,
	})

	require.NoError(t, job.Run())
	assert.True(t, boosts.Contains("GME"))
}

func TestCatalogRefreshName(t *testing.T) {
	job := NewCatalogRefreshJob(CatalogRefreshConfig{Log: zerolog.Nop()})
	assert.Equal(t, "catalog_refresh", job.Name())
}
