package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
)

// FireTransformer implements Transformer: parse, classify by region, then
// optionally reverse geocode.
type FireTransformer struct {
	classifier *domain.RegionClassifier
	geocoder   domain.Geocoder
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewTransformer creates a FireTransformer. A nil classifier uses the default
// region table; a nil geocoder disables geocoding enrichment.
func NewTransformer(classifier *domain.RegionClassifier, geocoder domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger) *FireTransformer {
	if classifier == nil {
		classifier = domain.DefaultClassifier()
	}
	return &FireTransformer{
		classifier: classifier,
		geocoder:   geocoder,
		metrics:    metrics,
		logger:     logger,
	}
}

func (t *FireTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Detection, error) {
	d, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.Detection{}, err
	}

	d = domain.EnrichDetection(d, t.classifier)
	d = domain.EnrichWithGeocoding(ctx, d, t.geocoder, t.logger)

	t.metrics.DetectionsByRegion.WithLabelValues(d.Region).Inc()
	return d, nil
}
