package mapbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func manaus() domain.GeocodingResult {
	return domain.GeocodingResult{PlaceName: "Manaus", FormattedAddress: "Manaus, Amazonas, Brazil", Country: "Brazil"}
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: manaus()}
	m := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, CacheOptions{Size: 10}, m)

	r1, err := cached.ReverseGeocode(context.Background(), -3.1190, -60.0217)
	require.NoError(t, err)
	assert.Equal(t, "Manaus", r1.PlaceName)

	r2, err := cached.ReverseGeocode(context.Background(), -3.1190, -60.0217)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedGeocoder_SameCellSharesEntry(t *testing.T) {
	inner := &countingGeocoder{result: manaus()}
	cached := NewCachedGeocoder(inner, CacheOptions{Size: 10}, observability.NewMetricsForTesting())

	_, _ = cached.ReverseGeocode(context.Background(), -3.11901, -60.02171)
	_, _ = cached.ReverseGeocode(context.Background(), -3.11904, -60.02174)
	_, _ = cached.ReverseGeocode(context.Background(), -3.12100, -60.02171)

	assert.Equal(t, 2, inner.calls, "third point falls in a neighbouring cell")
	assert.Equal(t, 2, cached.Len())
}

func TestCachedGeocoder_NotFoundNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, CacheOptions{Size: 10}, observability.NewMetricsForTesting())

	_, _ = cached.ReverseGeocode(context.Background(), 0, -30)
	_, _ = cached.ReverseGeocode(context.Background(), 0, -30)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_ErrorPassedThrough(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("rate limited")}
	cached := NewCachedGeocoder(inner, CacheOptions{Size: 10}, observability.NewMetricsForTesting())

	_, err := cached.ReverseGeocode(context.Background(), 1, 1)

	require.Error(t, err)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_TTLExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 2, 24, 12, 0, 0, 0, time.UTC))
	inner := &countingGeocoder{result: manaus()}
	m := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, CacheOptions{Size: 10, TTL: time.Hour, Clock: clock}, m)

	_, _ = cached.ReverseGeocode(context.Background(), -3.119, -60.022)
	clock.Advance(59 * time.Minute)
	_, _ = cached.ReverseGeocode(context.Background(), -3.119, -60.022)
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Minute)
	_, _ = cached.ReverseGeocode(context.Background(), -3.119, -60.022)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("expired")))
	assert.Equal(t, 1, cached.Len())
}

func TestCellOf(t *testing.T) {
	assert.Equal(t, cell{lat: -3119, lon: -60022}, cellOf(-3.11904, -60.02174))
	assert.Equal(t, cell{lat: 90000, lon: 180000}, cellOf(90, 180))
	assert.Equal(t, cellOf(0.0004, 0), cellOf(-0.0004, 0))
}

func TestLRU_Eviction(t *testing.T) {
	l := newLRU[string, int](2)
	now := time.Now()

	l.put("a", 1, time.Time{})
	l.put("b", 2, time.Time{})
	l.put("c", 3, time.Time{})

	_, state := l.get("a", now)
	assert.Equal(t, lookupMiss, state)
	v, state := l.get("c", now)
	assert.Equal(t, lookupHit, state)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, l.len())
}

func TestLRU_GetPromotes(t *testing.T) {
	l := newLRU[string, int](2)
	now := time.Now()

	l.put("a", 1, time.Time{})
	l.put("b", 2, time.Time{})
	l.get("a", now)
	l.put("c", 3, time.Time{})

	_, state := l.get("a", now)
	assert.Equal(t, lookupHit, state)
	_, state = l.get("b", now)
	assert.Equal(t, lookupMiss, state)
}

func TestLRU_PutOverwrites(t *testing.T) {
	l := newLRU[string, int](2)
	now := time.Now()

	l.put("a", 1, now.Add(-time.Second))
	l.put("a", 2, time.Time{})

	v, state := l.get("a", now)
	assert.Equal(t, lookupHit, state)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, l.len())
}

func TestLRU_ExpiredRemovedOnGet(t *testing.T) {
	l := newLRU[string, int](4)
	now := time.Now()

	l.put("a", 1, now)

	_, state := l.get("a", now)
	assert.Equal(t, lookupExpired, state)
	assert.Zero(t, l.len())
}

func TestLRU_MinimumCapacity(t *testing.T) {
	l := newLRU[string, int](0)

	l.put("a", 1, time.Time{})

	_, state := l.get("a", time.Now())
	assert.Equal(t, lookupHit, state)
}
