package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/config"
	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
)

// Writer publishes runway assignments to a Kafka topic, one message per
// airport keyed by ICAO code. It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured assignment topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes all assignments in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, assignments []domain.Assignment, at time.Time) error {
	if len(assignments) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(assignments))
	for i := range assignments {
		msg, err := serializeToMessage(assignments[i], at)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish assignments: %w", err)
	}
	w.logger.Debug("assignments published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// AssignmentMessage is the JSON value of a published assignment.
type AssignmentMessage struct {
	ICAO       string          `json:"icao"`
	Source     string          `json:"source"`
	Runways    []RunwayMessage `json:"runways"`
	AssignedAt time.Time       `json:"assigned_at"`
}

// RunwayMessage is one runway end of an assignment.
type RunwayMessage struct {
	Ident string `json:"ident"`
	Usage string `json:"usage"`
}

// serializeToMessage marshals an Assignment into a Kafka message.
func serializeToMessage(a domain.Assignment, at time.Time) (kafkago.Message, error) {
	value := AssignmentMessage{
		ICAO:       a.ICAO,
		Source:     a.Source.String(),
		AssignedAt: at.UTC(),
	}
	for _, e := range a.Selection.Entries() {
		value.Runways = append(value.Runways, RunwayMessage{Ident: e.Ident, Usage: e.Usage.String()})
	}
	data, err := json.Marshal(value)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assignment: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.ICAO),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(value.Source)},
			{Key: "assigned_at", Value: []byte(value.AssignedAt.Format(time.RFC3339))},
		},
	}, nil
}
