package usgs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/feed"
	"github.com/couchcryptid/seismic-map/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingFetcher struct {
	calls  int
	result domain.FeatureCollection
	err    error
}

func (m *countingFetcher) Fetch(_ context.Context, _ feed.QueryParams) (domain.FeatureCollection, error) {
	m.calls++
	return m.result, m.err
}

func window(t *testing.T, start, end string) feed.QueryParams {
	t.Helper()
	q, err := feed.NewBuilder(time.UTC).BuildQuery(domain.FilterState{StartTime: start, EndTime: end})
	require.NoError(t, err)
	return q
}

func newCached(inner feed.Fetcher, size int, now time.Time) *CachedFetcher {
	return NewCachedFetcher(inner, size, clockwork.NewFakeClockAt(now), observability.NewMetricsForTesting())
}

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// --- CachedFetcher tests ---

func TestCachedFetcher_ClosedWindowHit(t *testing.T) {
	inner := &countingFetcher{result: domain.FeatureCollection{Features: []domain.Feature{{Key: "a"}}}}
	cached := newCached(inner, 10, now)
	q := window(t, "2024-01-01", "2024-01-08")

	r1, err := cached.Fetch(context.Background(), q)
	require.NoError(t, err)
	r2, err := cached.Fetch(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedFetcher_OpenWindowNotCached(t *testing.T) {
	inner := &countingFetcher{}
	cached := newCached(inner, 10, now)
	q := window(t, "2024-05-25", "2024-06-02")

	_, err := cached.Fetch(context.Background(), q)
	require.NoError(t, err)
	_, err = cached.Fetch(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.cache.len())
}

func TestCachedFetcher_ErrorNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("boom")}
	cached := newCached(inner, 10, now)
	q := window(t, "2024-01-01", "2024-01-08")

	_, err := cached.Fetch(context.Background(), q)
	require.Error(t, err)
	_, err = cached.Fetch(context.Background(), q)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedFetcher_DistinctQueries(t *testing.T) {
	inner := &countingFetcher{}
	cached := newCached(inner, 10, now)

	_, _ = cached.Fetch(context.Background(), window(t, "2024-01-01", "2024-01-08"))
	_, _ = cached.Fetch(context.Background(), window(t, "2024-01-01", "2024-01-09"))

	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache tests ---

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", domain.FeatureCollection{Layer: "a"})
	c.put("b", domain.FeatureCollection{Layer: "b"})

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", domain.FeatureCollection{Layer: "c"})

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", domain.FeatureCollection{Layer: "old"})
	c.put("a", domain.FeatureCollection{Layer: "new"})

	got, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, domain.LayerName("new"), got.Layer)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_MinimumSize(t *testing.T) {
	c := newLRUCache(0)
	c.put("a", domain.FeatureCollection{})
	c.put("b", domain.FeatureCollection{})
	assert.Equal(t, 1, c.len())
}
