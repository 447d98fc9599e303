package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attempts to attach a place name to a detection.
// If geocoder is nil the detection is returned untouched; if geocoding fails
// the detection is returned with GeoSource set to "failed" (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, d Detection, geocoder Geocoder, logger *slog.Logger) Detection {
	if geocoder == nil {
		return d
	}

	result, err := geocoder.ReverseGeocode(ctx, d.Geo.Lat, d.Geo.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"detection_id", d.ID,
			"lat", d.Geo.Lat,
			"lon", d.Geo.Lon,
			"error", err,
		)
		d.GeoSource = "failed"
		return d
	}
	if result.Found() {
		d.FormattedAddress = result.FormattedAddress
		d.PlaceName = result.PlaceName
		d.Country = result.Country
		d.GeoConfidence = result.Confidence
		d.GeoSource = "reverse"
		return d
	}

	// Open ocean and remote areas have no address.
	d.GeoSource = "original"
	return d
}
