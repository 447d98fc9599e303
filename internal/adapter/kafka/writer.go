package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/config"
	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys set on every classified detection.
const (
	HeaderRegion      = "region"
	HeaderProcessedAt = "processed_at"
	HeaderTimeBucket  = "time_bucket"
	HeaderBrightness  = "brightness_source"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes classified detections to the sink topic and implements
// pipeline.BatchLoader. Messages are keyed by detection ID and hash
// partitioned, so a re-published detection lands on the same partition.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaSinkTopic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
		},
		logger: logger,
	}
}

// LoadBatch publishes the whole batch in one WriteMessages call. Nothing is
// sent if any detection fails to encode.
func (w *Writer) LoadBatch(ctx context.Context, detections []domain.Detection) error {
	if len(detections) == 0 {
		return nil
	}
	msgs, err := encodeBatch(detections)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write detections: %w", err)
	}
	w.logger.Debug("published detections", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func encodeBatch(detections []domain.Detection) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(detections))
	for i := range detections {
		msg, err := serializeToMessage(&detections[i])
		if err != nil {
			return nil, fmt.Errorf("detection %s: %w", detections[i].ID, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func serializeToMessage(d *domain.Detection) (kafkago.Message, error) {
	value, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize detection: %w", err)
	}
	return kafkago.Message{
		Key:     []byte(d.ID),
		Value:   value,
		Headers: detectionHeaders(d),
	}, nil
}

func detectionHeaders(d *domain.Detection) []kafkago.Header {
	headers := []kafkago.Header{
		{Key: HeaderRegion, Value: []byte(d.Region)},
		{Key: HeaderProcessedAt, Value: []byte(d.ProcessedAt.Format(time.RFC3339))},
	}
	if d.TimeBucket != "" {
		headers = append(headers, kafkago.Header{Key: HeaderTimeBucket, Value: []byte(d.TimeBucket)})
	}
	if d.BrightnessSource != "" {
		headers = append(headers, kafkago.Header{Key: HeaderBrightness, Value: []byte(d.BrightnessSource)})
	}
	return headers
}
