package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw FIRMS row into a classified detection.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Detection, error)
}

// BatchLoader writes multiple detections to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, detections []domain.Detection) error
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has loaded at least one batch.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any detections yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	b := newBackoff()
	for ctx.Err() == nil {
		if !p.step(ctx, b) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// step runs one extract-transform-load cycle and reports whether to continue.
func (p *Pipeline) step(ctx context.Context, b *backoff) bool {
	start := time.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	switch {
	case ctx.Err() != nil:
		return false
	case err != nil:
		p.logger.Error("extract batch failed", "error", err)
		return b.wait(ctx)
	case len(raws) == 0:
		return true
	}

	p.metrics.MessagesConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))
	b.reset()

	batch := p.transformBatch(ctx, raws)
	if len(batch.detections) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, batch.detections); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(batch.detections))
		return b.wait(ctx)
	}
	p.metrics.MessagesProduced.Add(float64(len(batch.detections)))
	for _, raw := range batch.pending {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// transformed holds the detections of one batch and the rows whose offsets
// may be committed once those detections are loaded.
type transformed struct {
	detections []domain.Detection
	pending    []domain.RawEvent
}

// transformBatch classifies every row. Rows that fail are committed at once
// so a poison row is never redelivered.
func (p *Pipeline) transformBatch(ctx context.Context, raws []domain.RawEvent) transformed {
	out := transformed{
		detections: make([]domain.Detection, 0, len(raws)),
		pending:    make([]domain.RawEvent, 0, len(raws)),
	}
	for _, raw := range raws {
		d, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("transform failed, skipping row",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.WithLabelValues(errorReason(err)).Inc()
			p.commit(ctx, raw)
			continue
		}
		out.detections = append(out.detections, d)
		out.pending = append(out.pending, raw)
	}
	return out
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoff doubles from initialBackoff up to maxBackoff between failed cycles.
type backoff struct {
	delay time.Duration
}

func newBackoff() *backoff {
	return &backoff{delay: initialBackoff}
}

func (b *backoff) reset() {
	b.delay = initialBackoff
}

// wait sleeps for the current delay and reports false if ctx ended first.
func (b *backoff) wait(ctx context.Context) bool {
	if !retry.SleepWithContext(ctx, b.delay) {
		return false
	}
	b.delay = retry.NextBackoff(b.delay, maxBackoff)
	return true
}

// errorReason labels transform failures for the transform_errors_total metric.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return "coordinate"
	case errors.Is(err, domain.ErrMissingBrightness), errors.Is(err, domain.ErrInvalidBrightness):
		return "brightness"
	default:
		return "decode"
	}
}
