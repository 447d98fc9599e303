package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
)

// NamedLoader pairs a BatchLoader with a name used in error messages.
type NamedLoader struct {
	Name   string
	Loader BatchLoader
}

// MultiLoader fans a batch out to several loaders in order. The first failure
// aborts the batch so the pipeline retries it; loaders must therefore be
// idempotent (the store upserts by ID, the Kafka sink is keyed by ID).
type MultiLoader struct {
	loaders []NamedLoader
}

// NewMultiLoader creates a MultiLoader. Nil loaders are skipped.
func NewMultiLoader(loaders ...NamedLoader) *MultiLoader {
	m := &MultiLoader{}
	for _, l := range loaders {
		if l.Loader != nil {
			m.loaders = append(m.loaders, l)
		}
	}
	return m
}

// LoadBatch implements BatchLoader.
func (m *MultiLoader) LoadBatch(ctx context.Context, detections []domain.Detection) error {
	for _, l := range m.loaders {
		if err := l.Loader.LoadBatch(ctx, detections); err != nil {
			return fmt.Errorf("load %s: %w", l.Name, err)
		}
	}
	return nil
}

// Names lists the configured loaders in fan-out order.
func (m *MultiLoader) Names() []string {
	names := make([]string, len(m.loaders))
	for i, l := range m.loaders {
		names[i] = l.Name
	}
	return names
}
