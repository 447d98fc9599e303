package dashboard

import (
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
)

const (
	featureCollectionType = "FeatureCollection"
	featureType           = "Feature"
	geometryPointType     = "Point"
)

// FeatureCollection is a GeoJSON FeatureCollection of detection points.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON Point; Coordinates are [lon, lat].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// BuildFeatureCollection converts detections to GeoJSON. An empty input
// yields an empty (non-null) features array.
func BuildFeatureCollection(detections []domain.Detection) FeatureCollection {
	features := make([]Feature, 0, len(detections))
	for i := range detections {
		features = append(features, buildFeature(&detections[i]))
	}
	return FeatureCollection{Type: featureCollectionType, Features: features}
}

func buildFeature(d *domain.Detection) Feature {
	props := map[string]any{
		"brightness": d.Brightness,
		"region":     d.Region,
	}
	if !d.AcquiredAt.IsZero() {
		props["acquired_at"] = d.AcquiredAt.UTC().Format(time.RFC3339)
	}
	if d.Satellite != "" {
		props["satellite"] = d.Satellite
	}
	if d.Confidence != "" {
		props["confidence"] = d.Confidence
	}
	if d.FRP != 0 {
		props["frp"] = d.FRP
	}
	if d.DayNight != "" {
		props["daynight"] = d.DayNight
	}
	if d.PlaceName != "" {
		props["place_name"] = d.PlaceName
	}
	if d.Country != "" {
		props["country"] = d.Country
	}

	return Feature{
		Type: featureType,
		ID:   d.ID,
		Geometry: Geometry{
			Type:        geometryPointType,
			Coordinates: [2]float64{d.Geo.Lon, d.Geo.Lat},
		},
		Properties: props,
	}
}
