package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/neighborhood-watch/internal/config"
	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer mirrors stored records to a Kafka topic.
// It implements pipeline.Mirror.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured record topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// MirrorRecord publishes one stored record keyed by its ID.
func (w *Writer) MirrorRecord(ctx context.Context, rec domain.Record) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return domain.NewError(domain.KindTransport, "mirror record", err)
	}
	w.logger.Debug("record mirrored", "record_id", rec.ID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, domain.NewError(domain.KindSerialization, "serialize record", fmt.Errorf("record %s: %w", rec.ID, err))
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "published_by", Value: []byte(rec.PublishedBy)},
			{Key: "fetch_timestamp", Value: []byte(rec.FetchTimestamp)},
		},
	}, nil
}
