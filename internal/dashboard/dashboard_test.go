package dashboard

import (
	"testing"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDetections() []domain.Detection {
	return []domain.Detection{
		{
			ID:         "viirs-a",
			Geo:        domain.Geo{Lat: 39.7596, Lon: -121.6219},
			Brightness: 341.82,
			AcquiredAt: time.Date(2025, 2, 24, 9, 42, 0, 0, time.UTC),
			Satellite:  "N",
			Confidence: "nominal",
			FRP:        6.31,
			DayNight:   "night",
			Region:     "Western North America",
		},
		{
			ID:         "viirs-b",
			Geo:        domain.Geo{Lat: -3.119, Lon: -60.0217},
			Brightness: 329.12,
			Region:     "Amazon",
		},
	}
}

func TestBuildDeck(t *testing.T) {
	vp := domain.EstimateViewport(domain.PointsOf(sampleDetections()))
	deck := BuildDeck(sampleDetections(), vp)

	assert.Equal(t, MapStyle, deck.MapStyle)
	assert.Equal(t, ViewState{Latitude: vp.CenterLat, Longitude: vp.CenterLon, Zoom: vp.Zoom, Pitch: 50}, deck.InitialViewState)
	require.Len(t, deck.Layers, 2)

	heat := deck.Layers[0]
	assert.Equal(t, "HeatmapLayer", heat.Type)
	assert.Equal(t, "@@=brightness", heat.GetWeight)
	assert.Equal(t, 60, heat.RadiusPixels)
	assert.False(t, heat.Pickable)

	scatter := deck.Layers[1]
	assert.Equal(t, "ScatterplotLayer", scatter.Type)
	require.NotNil(t, scatter.GetColor)
	assert.Equal(t, [4]int{200, 30, 0, 160}, *scatter.GetColor)
	assert.Equal(t, 30000, scatter.GetRadius)
	assert.True(t, scatter.Pickable)

	require.Len(t, scatter.Data, 2)
	assert.Equal(t, Point{
		ID: "viirs-a", Latitude: 39.7596, Longitude: -121.6219, Brightness: 341.82,
		Region: "Western North America", AcqTime: "09:42",
	}, scatter.Data[0])
	assert.Empty(t, scatter.Data[1].AcqTime)

	assert.Contains(t, deck.Tooltip.HTML, "{brightness}K")
	assert.Equal(t, "black", deck.Tooltip.Style["backgroundColor"])
}

func TestBuildDeck_JSONShape(t *testing.T) {
	deck := BuildDeck(nil, domain.DefaultViewport())

	data, err := json.Marshal(deck)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	layers, ok := decoded["layers"].([]any)
	require.True(t, ok)
	first := layers[0].(map[string]any)
	assert.Equal(t, "HeatmapLayer", first["@@type"])
	assert.Equal(t, []any{}, first["data"], "empty data serialises as [] not null")
	assert.NotContains(t, first, "getColor")

	view := decoded["initialViewState"].(map[string]any)
	assert.InDelta(t, 1.5, view["zoom"], 1e-9)
	assert.InDelta(t, 0.0, view["latitude"], 1e-9)
}

func TestBuildFeatureCollection(t *testing.T) {
	fc := BuildFeatureCollection(sampleDetections())

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	f := fc.Features[0]
	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "viirs-a", f.ID)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, [2]float64{-121.6219, 39.7596}, f.Geometry.Coordinates, "GeoJSON order is lon, lat")
	assert.Equal(t, "2025-02-24T09:42:00Z", f.Properties["acquired_at"])
	assert.Equal(t, "Western North America", f.Properties["region"])

	sparse := fc.Features[1].Properties
	assert.NotContains(t, sparse, "acquired_at")
	assert.NotContains(t, sparse, "frp")
}

func TestBuildFeatureCollection_Empty(t *testing.T) {
	data, err := json.Marshal(BuildFeatureCollection(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}
