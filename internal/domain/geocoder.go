package domain

import "context"

// GeocodingResult is what a reverse lookup knows about a detection's location.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Country          string
	Confidence       float64 // provider relevance in [0, 1]
}

// Found reports whether the provider matched any place.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != ""
}

// Geocoder resolves detection coordinates to place details.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// GeocoderFunc adapts a plain function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, lat, lon float64) (GeocodingResult, error)

func (f GeocoderFunc) ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error) {
	return f(ctx, lat, lon)
}
