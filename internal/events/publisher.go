// Package events announces records appended to the master dataset on Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/incident-radar/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher writes one message per appended incident, keyed by its document ID.
type Publisher struct {
	w     messageWriter
	runID string
	log   *slog.Logger
	now   func() time.Time
}

// NewPublisher creates a Kafka-backed publisher for topic.
func NewPublisher(brokers []string, topic, runID string, logger *slog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return newPublisher(w, runID, logger)
}

func newPublisher(w messageWriter, runID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{w: w, runID: runID, log: logger, now: time.Now}
}

// Publish sends docs in a single batch.
func (p *Publisher) Publish(ctx context.Context, docs []models.AnnotatedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	msgs, err := p.Messages(docs)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write kafka messages: %w", err)
	}

	p.log.Info("published incidents", slog.Int("count", len(msgs)), slog.String("run_id", p.runID))
	return nil
}

// Messages renders docs as Kafka messages.
func (p *Publisher) Messages(docs []models.AnnotatedDocument) ([]kafka.Message, error) {
	ts := p.now().UTC().Format(time.RFC3339)
	msgs := make([]kafka.Message, 0, len(docs))
	for _, doc := range docs {
		value, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal incident: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(doc.ID()),
			Value: value,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(p.runID)},
				{Key: "topic", Value: []byte(doc.Topic)},
				{Key: "timestamp", Value: []byte(ts)},
			},
		})
	}
	return msgs, nil
}

// Close flushes and closes the underlying writer when it supports it.
func (p *Publisher) Close() error {
	if c, ok := p.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
