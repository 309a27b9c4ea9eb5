package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/incident-radar/internal/models"
)

type stubWriter struct {
	msgs []kafka.Message
	err  error
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func testDoc() models.AnnotatedDocument {
	return models.AnnotatedDocument{
		RawDocument: models.RawDocument{
			Title: "Hakenkreuz geschmiert",
			Date:  "18.03.2021",
			URL:   "https://polizei.example/1",
		},
		RightWingRelated: models.Bool(true),
		Topic:            models.TopicRightWing,
		KeywordMatch:     []string{"hakenkreuz"},
	}
}

func TestPublishWritesKeyedMessages(t *testing.T) {
	w := &stubWriter{}
	p := newPublisher(w, "run-1", nil)
	p.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }

	doc := testDoc()
	require.NoError(t, p.Publish(context.Background(), []models.AnnotatedDocument{doc}))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	require.Equal(t, doc.ID(), string(msg.Key))

	var decoded models.AnnotatedDocument
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, doc.URL, decoded.URL)
	require.Equal(t, models.TopicRightWing, decoded.Topic)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, "run-1", headers["run_id"])
	require.Equal(t, "RightWing", headers["topic"])
	require.Equal(t, "2024-02-03T04:05:06Z", headers["timestamp"])
}

func TestPublishSkipsEmptyBatch(t *testing.T) {
	w := &stubWriter{err: errors.New("must not be called")}
	p := newPublisher(w, "run-1", nil)
	require.NoError(t, p.Publish(context.Background(), nil))
}

func TestPublishWrapsWriterError(t *testing.T) {
	w := &stubWriter{err: errors.New("broker down")}
	p := newPublisher(w, "run-1", nil)
	err := p.Publish(context.Background(), []models.AnnotatedDocument{testDoc()})
	require.ErrorContains(t, err, "broker down")
}
