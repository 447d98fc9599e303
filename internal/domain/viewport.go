package domain

// Default camera used when there is nothing to frame.
const (
	DefaultZoom  = 1.5
	DefaultPitch = 50.0
)

// Viewport holds the map camera parameters used to initialise a map view.
type Viewport struct {
	CenterLat float64 `json:"latitude"`
	CenterLon float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
}

// Point is a bare coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// zoomBands maps spread (degrees) to zoom. Evaluated in order with a strict
// greater-than; the last band catches everything else.
var zoomBands = []struct {
	minSpread float64
	zoom      float64
}{
	{50, 1.5},
	{20, 2.5},
	{10, 3.5},
}

const closeZoom = 4.5

// DefaultViewport is the whole-world camera.
func DefaultViewport() Viewport {
	return Viewport{Zoom: DefaultZoom, Pitch: DefaultPitch}
}

// EstimateViewport centres the map on the arithmetic mean of points and picks
// a zoom band from their spread. The mean is not antimeridian-aware.
func EstimateViewport(points []Point) Viewport {
	if len(points) == 0 {
		return DefaultViewport()
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
		minLat = min(minLat, p.Lat)
		maxLat = max(maxLat, p.Lat)
		minLon = min(minLon, p.Lon)
		maxLon = max(maxLon, p.Lon)
	}

	n := float64(len(points))
	spread := max(maxLat-minLat, maxLon-minLon)

	return Viewport{
		CenterLat: sumLat / n,
		CenterLon: sumLon / n,
		Zoom:      zoomForSpread(spread),
		Pitch:     DefaultPitch,
	}
}

func zoomForSpread(spread float64) float64 {
	for _, b := range zoomBands {
		if spread > b.minSpread {
			return b.zoom
		}
	}
	return closeZoom
}

// PointsOf extracts the coordinates of detections.
func PointsOf(detections []Detection) []Point {
	points := make([]Point, len(detections))
	for i, d := range detections {
		points[i] = Point{Lat: d.Geo.Lat, Lon: d.Geo.Lon}
	}
	return points
}
