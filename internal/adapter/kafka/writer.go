package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/education-choropleth/internal/config"
	"github.com/couchcryptid/education-choropleth/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	headerPalette    = "palette"
	headerRenderedAt = "rendered_at"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes joined county records to a Kafka topic.
// It implements pipeline.Exporter.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Export serializes every county and publishes them in a single
// WriteMessages call. Messages are keyed by FIPS code.
func (w *Writer) Export(ctx context.Context, p domain.Palette, renderedAt time.Time, counties []domain.CountyExport) error {
	if len(counties) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(counties))
	for i := range counties {
		msg, err := serializeToMessage(counties[i], p, renderedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write county messages: %w", err)
	}
	w.logger.Info("counties exported", "count", len(msgs), "palette", p.Key())
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CountyExport into a Kafka message.
func serializeToMessage(c domain.CountyExport, p domain.Palette, renderedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize county %d: %w", c.FIPS, err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(c.FIPS)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: headerPalette, Value: []byte(p.Key())},
			{Key: headerRenderedAt, Value: []byte(renderedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
