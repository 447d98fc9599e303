package firms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Header keys set on every RawEvent produced by the poller.
const (
	HeaderFetchID = "fetch_id"
	HeaderSource  = "source"
)

// defaultRetryDelay bounds how soon a failed fetch is retried.
const defaultRetryDelay = 30 * time.Second

// Fetcher downloads one FIRMS CSV snapshot.
type Fetcher interface {
	FetchCSV(ctx context.Context) ([]byte, error)
}

// PollerConfig controls fetch cadence.
type PollerConfig struct {
	Source        string
	Interval      time.Duration
	FlushInterval time.Duration
	RetryDelay    time.Duration
	Clock         clockwork.Clock
}

// Poller implements pipeline.BatchExtractor over the FIRMS area API. Each
// fetch yields the whole snapshot; rows are queued and handed out in batches.
// Poller is not safe for concurrent use; the pipeline calls it from one goroutine.
type Poller struct {
	fetcher Fetcher
	cfg     PollerConfig
	metrics *observability.Metrics
	logger  *slog.Logger

	queue     []domain.RawEvent
	nextFetch time.Time
}

// NewPoller creates a Poller. The first call to ExtractBatch fetches immediately.
func NewPoller(f Fetcher, cfg PollerConfig, metrics *observability.Metrics, logger *slog.Logger) *Poller {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = min(defaultRetryDelay, cfg.Interval)
	}
	return &Poller{
		fetcher: f,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// ExtractBatch returns up to batchSize queued rows. With an empty queue it
// fetches when the poll interval has elapsed, otherwise it waits at most the
// flush interval and returns an empty batch.
func (p *Poller) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	if len(p.queue) > 0 {
		return p.dequeue(batchSize), nil
	}

	now := p.cfg.Clock.Now()
	if now.Before(p.nextFetch) {
		wait := min(p.nextFetch.Sub(now), p.cfg.FlushInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.cfg.Clock.After(wait):
			return nil, nil
		}
	}

	if err := p.poll(ctx, now); err != nil {
		return nil, err
	}
	return p.dequeue(batchSize), nil
}

// Pending returns the number of queued rows not yet handed out.
func (p *Poller) Pending() int {
	return len(p.queue)
}

func (p *Poller) poll(ctx context.Context, now time.Time) error {
	fetchID := uuid.NewString()
	logger := p.logger.With("fetch_id", fetchID, "source", p.cfg.Source)

	rows, err := p.fetchRows(ctx)
	p.metrics.FIRMSFetches.WithLabelValues(outcome(err)).Inc()

	switch {
	case errors.Is(err, ErrNoData):
		p.nextFetch = now.Add(p.cfg.Interval)
		p.metrics.FIRMSLastSuccessful.Set(float64(now.Unix()))
		logger.Info("firms fetch returned no detections", "next_fetch", p.nextFetch)
		return nil
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.nextFetch = now.Add(p.cfg.RetryDelay)
		return fmt.Errorf("firms poll %s: %w", fetchID, err)
	}

	events := make([]domain.RawEvent, 0, len(rows))
	for i, row := range rows {
		value, err := json.Marshal(row)
		if err != nil {
			logger.Warn("skipping unencodable row", "row", i, "error", err)
			continue
		}
		events = append(events, domain.RawEvent{
			Key:   []byte(fetchID + ":" + strconv.Itoa(i)),
			Value: value,
			Headers: map[string]string{
				HeaderFetchID: fetchID,
				HeaderSource:  p.cfg.Source,
			},
			Topic:     "firms/" + p.cfg.Source,
			Offset:    int64(i),
			Timestamp: now,
		})
	}

	p.queue = events
	p.nextFetch = now.Add(p.cfg.Interval)
	p.metrics.FIRMSRowsFetched.Add(float64(len(rows)))
	p.metrics.FIRMSLastSuccessful.Set(float64(now.Unix()))
	logger.Info("firms snapshot fetched", "rows", len(events), "next_fetch", p.nextFetch)
	return nil
}

func (p *Poller) fetchRows(ctx context.Context) ([]domain.RawFIRMSRecord, error) {
	body, err := p.fetcher.FetchCSV(ctx)
	if err != nil {
		return nil, err
	}
	return ParseCSV(body)
}

func (p *Poller) dequeue(n int) []domain.RawEvent {
	n = min(n, len(p.queue))
	batch := p.queue[:n:n]
	p.queue = p.queue[n:]
	if len(p.queue) == 0 {
		p.queue = nil
	}
	return batch
}
