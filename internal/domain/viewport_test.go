package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateViewport_Empty(t *testing.T) {
	v := EstimateViewport(nil)

	assert.Equal(t, Viewport{CenterLat: 0, CenterLon: 0, Zoom: 1.5, Pitch: 50}, v)
	assert.Equal(t, v, EstimateViewport([]Point{}))
}

func TestEstimateViewport_CenterAndZoom(t *testing.T) {
	v := EstimateViewport([]Point{{Lat: 35, Lon: -120}, {Lat: 40, Lon: -115}})

	assert.Equal(t, 37.5, v.CenterLat)
	assert.Equal(t, -117.5, v.CenterLon)
	assert.Equal(t, 4.5, v.Zoom)
	assert.Equal(t, 50.0, v.Pitch)
}

func TestEstimateViewport_SinglePoint(t *testing.T) {
	v := EstimateViewport([]Point{{Lat: -3, Lon: 112}})

	assert.Equal(t, Viewport{CenterLat: -3, CenterLon: 112, Zoom: 4.5, Pitch: 50}, v)
}

func TestEstimateViewport_ZoomBands(t *testing.T) {
	tests := []struct {
		name     string
		points   []Point
		expected float64
	}{
		{"spread above 50", []Point{{0, 0}, {0, 60}}, 1.5},
		{"spread exactly 50", []Point{{0, 0}, {50, 0}}, 2.5},
		{"spread above 20 on latitude", []Point{{0, 0}, {20.0000001, 5}}, 2.5},
		{"spread exactly 20", []Point{{0, 0}, {20, 0}}, 3.5},
		{"spread above 10", []Point{{0, 0}, {3, 15}}, 3.5},
		{"spread exactly 10", []Point{{0, 0}, {0, 10}}, 4.5},
		{"tight cluster", []Point{{1, 1}, {2, 2}}, 4.5},
		{"longitude wins over latitude", []Point{{0, -40}, {5, 40}}, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateViewport(tt.points).Zoom)
		})
	}
}

func TestEstimateViewport_OrderInvariant(t *testing.T) {
	points := []Point{{10, 20}, {-5, 33}, {17, -4}, {2, 2}}
	reversed := []Point{points[3], points[2], points[1], points[0]}

	a := EstimateViewport(points)
	b := EstimateViewport(reversed)

	assert.InDelta(t, a.CenterLat, b.CenterLat, 1e-9)
	assert.InDelta(t, a.CenterLon, b.CenterLon, 1e-9)
	assert.Equal(t, a.Zoom, b.Zoom)
	assert.Equal(t, a.Pitch, b.Pitch)
}

func TestEstimateViewport_DuplicatesDoNotChangeZoom(t *testing.T) {
	points := []Point{{0, 0}, {15, 15}}
	dup := []Point{{0, 0}, {0, 0}, {0, 0}, {15, 15}}

	assert.Equal(t, EstimateViewport(points).Zoom, EstimateViewport(dup).Zoom)
	assert.Equal(t, 3.75, EstimateViewport(dup).CenterLat, "duplicates weight the mean")
}

func TestEstimateViewport_NotAntimeridianAware(t *testing.T) {
	v := EstimateViewport([]Point{{Lat: 0, Lon: 179}, {Lat: 0, Lon: -179}})

	assert.Equal(t, 0.0, v.CenterLon)
	assert.Equal(t, 1.5, v.Zoom)
}

func TestPointsOf(t *testing.T) {
	points := PointsOf([]Detection{
		{Geo: Geo{Lat: 1, Lon: 2}},
		{Geo: Geo{Lat: 3, Lon: 4}},
	})

	assert.Equal(t, []Point{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}, points)
}
