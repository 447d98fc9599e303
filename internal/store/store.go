// Package store keeps the rolling snapshot of classified detections that the
// dashboard API serves.
package store

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Store is a thread-safe in-memory detection set keyed by detection ID.
// It implements pipeline.BatchLoader.
type Store struct {
	mu          sync.RWMutex
	byID        map[string]domain.Detection
	lastUpdated time.Time

	retention time.Duration
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates an empty Store. Detections acquired more than retention ago
// are pruned on every load.
func New(retention time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		byID:      make(map[string]domain.Detection),
		retention: retention,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// LoadBatch upserts detections by ID and prunes expired ones.
func (s *Store) LoadBatch(_ context.Context, detections []domain.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range detections {
		s.byID[d.ID] = d
	}
	s.lastUpdated = s.clock.Now()
	pruned := s.pruneLocked()

	s.metrics.StoreDetections.Set(float64(len(s.byID)))
	if pruned > 0 {
		s.metrics.StorePruned.Add(float64(pruned))
		s.logger.Debug("pruned expired detections", "count", pruned, "retention", s.retention)
	}
	return nil
}

// Detections returns a copy of the snapshot ordered by acquisition time, then ID.
func (s *Store) Detections(_ context.Context) []domain.Detection {
	s.mu.RLock()
	out := make([]domain.Detection, 0, len(s.byID))
	for _, d := range s.byID {
		out = append(out, d)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Detection) int {
		if c := a.AcquiredAt.Compare(b.AcquiredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Len returns the number of stored detections.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// LastUpdated returns when the last batch was loaded, zero if never.
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// Prune drops expired detections and returns how many were removed.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.pruneLocked()
	s.metrics.StoreDetections.Set(float64(len(s.byID)))
	s.metrics.StorePruned.Add(float64(n))
	return n
}

func (s *Store) pruneLocked() int {
	if s.retention <= 0 {
		return 0
	}
	cutoff := s.clock.Now().Add(-s.retention)
	n := 0
	for id, d := range s.byID {
		if observedAt(d).Before(cutoff) {
			delete(s.byID, id)
			n++
		}
	}
	return n
}

// observedAt falls back to the processing time for rows without acq_date.
func observedAt(d domain.Detection) time.Time {
	if d.AcquiredAt.IsZero() {
		return d.ProcessedAt
	}
	return d.AcquiredAt
}
