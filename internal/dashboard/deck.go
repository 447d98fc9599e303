// Package dashboard builds the map payloads a front end renders: a deck.gl
// (pydeck JSON) configuration and a GeoJSON feature collection.
package dashboard

import (
	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
)

// Map style and layer parameters.
const (
	MapStyle = "mapbox://styles/mapbox/dark-v10"

	HeatmapRadiusPixels = 60
	ScatterRadiusMeters = 30000
)

// ScatterColor is the RGBA fill of the hotspot markers.
var ScatterColor = [4]int{200, 30, 0, 160}

const tooltipHTML = "<b>Brightness:</b> {brightness}K<br/>" +
	"<b>Latitude:</b> {latitude}°<br/>" +
	"<b>Longitude:</b> {longitude}°"

// Deck is the pydeck JSON configuration for the hotspot map.
type Deck struct {
	MapStyle         string    `json:"mapStyle"`
	InitialViewState ViewState `json:"initialViewState"`
	Layers           []Layer   `json:"layers"`
	Tooltip          Tooltip   `json:"tooltip"`
}

// ViewState is the initial camera.
type ViewState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
}

// Layer is one deck.gl layer. Accessor strings use the pydeck "@@=" expression
// syntax so the payload can be fed to deck.gl's JSON converter unchanged.
type Layer struct {
	Type         string  `json:"@@type"`
	ID           string  `json:"id"`
	Data         []Point `json:"data"`
	GetPosition  string  `json:"getPosition"`
	GetWeight    string  `json:"getWeight,omitempty"`
	RadiusPixels int     `json:"radiusPixels,omitempty"`
	GetColor     *[4]int `json:"getColor,omitempty"`
	GetRadius    int     `json:"getRadius,omitempty"`
	Pickable     bool    `json:"pickable,omitempty"`
}

// Point is the per-detection record both layers read.
type Point struct {
	ID         string  `json:"id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Brightness float64 `json:"brightness"`
	Region     string  `json:"region"`
	AcqTime    string  `json:"acq_time,omitempty"`
}

// Tooltip is shown when hovering a pickable layer.
type Tooltip struct {
	HTML  string            `json:"html"`
	Style map[string]string `json:"style"`
}

// BuildDeck assembles the map configuration for detections framed by vp.
func BuildDeck(detections []domain.Detection, vp domain.Viewport) Deck {
	data := points(detections)
	color := ScatterColor

	return Deck{
		MapStyle: MapStyle,
		InitialViewState: ViewState{
			Latitude:  vp.CenterLat,
			Longitude: vp.CenterLon,
			Zoom:      vp.Zoom,
			Pitch:     vp.Pitch,
		},
		Layers: []Layer{
			{
				Type:         "HeatmapLayer",
				ID:           "fire-heatmap",
				Data:         data,
				GetPosition:  "@@=[longitude, latitude]",
				GetWeight:    "@@=brightness",
				RadiusPixels: HeatmapRadiusPixels,
			},
			{
				Type:        "ScatterplotLayer",
				ID:          "fire-hotspots",
				Data:        data,
				GetPosition: "@@=[longitude, latitude]",
				GetColor:    &color,
				GetRadius:   ScatterRadiusMeters,
				Pickable:    true,
			},
		},
		Tooltip: Tooltip{
			HTML: tooltipHTML,
			Style: map[string]string{
				"backgroundColor": "black",
				"color":           "white",
				"fontSize":        "12px",
			},
		},
	}
}

func points(detections []domain.Detection) []Point {
	out := make([]Point, len(detections))
	for i, d := range detections {
		p := Point{
			ID:         d.ID,
			Latitude:   d.Geo.Lat,
			Longitude:  d.Geo.Lon,
			Brightness: d.Brightness,
			Region:     d.Region,
		}
		if !d.AcquiredAt.IsZero() {
			p.AcqTime = d.AcquiredAt.UTC().Format("15:04")
		}
		out[i] = p
	}
	return out
}
