// Package kafka streams ingested observations to a topic for downstream
// consumers (dashboards, alerting). The stream is optional and best effort;
// the SQLite store remains the system of record.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

// Writer produces observation messages keyed by site id.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured observation topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSeries serializes and publishes a site's observations in a single
// WriteMessages call.
func (w *Writer) PublishSeries(ctx context.Context, series domain.TimeSeries) error {
	if len(series.Observations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(series.Observations))
	for i := range series.Observations {
		msg, err := serializeToMessage(series.Observations[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and releases the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Observation into a Kafka message.
func serializeToMessage(o domain.Observation) (kafkago.Message, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(o.SiteID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "quality_flag", Value: []byte(o.Quality)},
			{Key: "observed_at", Value: []byte(o.Timestamp.UTC().Format(time.RFC3339))},
		},
	}, nil
}
