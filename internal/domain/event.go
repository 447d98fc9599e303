package domain

import (
	"context"
	"time"
)

// RawFIRMSRecord is one FIRMS CSV row keyed by column name. Column sets differ
// between products (VIIRS vs MODIS), so the row is kept as a map rather than a
// fixed struct.
type RawFIRMSRecord map[string]string

// Column names used by the FIRMS area API.
const (
	ColLatitude   = "latitude"
	ColLongitude  = "longitude"
	ColBrightTI4  = "bright_ti4"
	ColBrightTI5  = "bright_ti5"
	ColScan       = "scan"
	ColTrack      = "track"
	ColAcqDate    = "acq_date"
	ColAcqTime    = "acq_time"
	ColSatellite  = "satellite"
	ColInstrument = "instrument"
	ColConfidence = "confidence"
	ColVersion    = "version"
	ColFRP        = "frp"
	ColDayNight   = "daynight"
)

// RawEvent represents an unprocessed row from an extractor (FIRMS poll or Kafka).
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Detection is one satellite-observed thermal anomaly after parsing.
// Region is assigned once by the classifier and never rewritten.
type Detection struct {
	ID               string    `json:"id"`
	Geo              Geo       `json:"geo"`
	Brightness       float64   `json:"brightness"`
	BrightnessSource string    `json:"brightness_source,omitempty"`
	AcquiredAt       time.Time `json:"acquired_at"`
	Satellite        string    `json:"satellite,omitempty"`
	Instrument       string    `json:"instrument,omitempty"`
	Version          string    `json:"version,omitempty"`
	Confidence       string    `json:"confidence,omitempty"`
	FRP              float64   `json:"frp,omitempty"`
	Scan             float64   `json:"scan,omitempty"`
	Track            float64   `json:"track,omitempty"`
	DayNight         string    `json:"daynight,omitempty"`
	Region           string    `json:"region"`
	TimeBucket       string    `json:"time_bucket,omitempty"`

	// Geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	Country          string  `json:"country,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "reverse", "original", "failed"

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}
