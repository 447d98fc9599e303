//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Live Mapbox checks. Run with:
//
//	MAPBOX_TOKEN=pk... go test -tags=mapbox ./internal/adapter/mapbox/ -run Smoke -count=1

func liveClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Skip("MAPBOX_TOKEN not set")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_FireSites(t *testing.T) {
	c := liveClient(t)

	sites := []struct {
		name     string
		lat, lon float64
		country  string
	}{
		{"Paradise", 39.7596, -121.6219, "United States"},
		{"Pantanal", -17.5, -57.4, "Brazil"},
		{"Kalimantan", -2.2, 113.9, "Indonesia"},
	}
	for _, s := range sites {
		t.Run(s.name, func(t *testing.T) {
			result, err := c.ReverseGeocode(context.Background(), s.lat, s.lon)
			require.NoError(t, err)
			require.True(t, result.Found())
			assert.Equal(t, s.country, result.Country)
			assert.Greater(t, result.Confidence, 0.0)
		})
	}
}

func TestSmoke_OpenOcean(t *testing.T) {
	result, err := liveClient(t).ReverseGeocode(context.Background(), 0, -30)
	require.NoError(t, err)
	assert.False(t, result.Found())
}

func TestSmoke_CachedLookup(t *testing.T) {
	m := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(liveClient(t), CacheOptions{Size: 10, TTL: time.Hour}, m)

	r1, err := cached.ReverseGeocode(context.Background(), -33.8688, 151.2093)
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), -33.86881, 151.20931)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, cached.Len())
}
