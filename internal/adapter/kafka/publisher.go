package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cold-temp-correction/internal/config"
	"github.com/couchcryptid/cold-temp-correction/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces airport views to a Kafka topic, keyed by airport
// identifier so compacted topics keep the latest view of each airport.
// It implements pipeline.ViewPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured view topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishViews serializes and writes every view in a single WriteMessages call.
func (p *Publisher) PublishViews(ctx context.Context, views []domain.AirportView) error {
	if len(views) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(views))
	for i := range views {
		msg, err := serializeToMessage(views[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write airport views: %w", err)
	}
	p.logger.Debug("airport views published", "topic", p.writer.Topic, "views", len(msgs))
	return nil
}

// Close flushes pending writes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AirportView into a Kafka message.
func serializeToMessage(view domain.AirportView) (kafkago.Message, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize airport view: %w", err)
	}
	observedAt := ""
	if !view.ObservedAt.IsZero() {
		observedAt = view.ObservedAt.Format(time.RFC3339)
	}
	return kafkago.Message{
		Key:   []byte(view.Identifier),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "airport", Value: []byte(view.Identifier)},
			{Key: "observed_at", Value: []byte(observedAt)},
		},
	}, nil
}
