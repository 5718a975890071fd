package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	return nil
}

func TestKafkaDispatcher_WritesEnvelopeKeyedByChannel(t *testing.T) {
	writer := &recordingWriter{}
	d := newKafkaDispatcher(writer)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return at }

	err := d.Publish(t.Context(), "vendor:v-1", "order.offered", map[string]any{"orderId": "o-1", "batch": 1})

	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "vendor:v-1", string(msg.Key))
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte("order.offered")})

	var envelope Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.Equal(t, "vendor:v-1", envelope.Channel)
	assert.Equal(t, "order.offered", envelope.Event)
	assert.Equal(t, "o-1", envelope.Payload["orderId"])
	assert.InDelta(t, 1, envelope.Payload["batch"], 0)
	assert.True(t, at.Equal(envelope.PublishedAt))
}

func TestKafkaDispatcher_WrapsWriterError(t *testing.T) {
	boom := errors.New("leader not available")
	d := newKafkaDispatcher(&recordingWriter{err: boom})

	err := d.Publish(t.Context(), "admin", "order.assignment_failed", nil)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "order.assignment_failed")
}

func TestKafkaDispatcher_UnencodablePayload(t *testing.T) {
	writer := &recordingWriter{}
	d := newKafkaDispatcher(writer)

	err := d.Publish(t.Context(), "admin", "order.cancelled", map[string]any{"bad": make(chan int)})

	require.Error(t, err)
	assert.Empty(t, writer.messages)
}

func TestNewKafkaDispatcher_FlushesWithoutWaitingForFullBatch(t *testing.T) {
	d := NewKafkaDispatcher([]string{"localhost:9092"}, "dispatch.notifications")
	defer func() { _ = d.Close() }()

	writer, ok := d.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, KafkaBatchTimeout, writer.BatchTimeout)
	assert.Equal(t, kafka.RequireAll, writer.RequiredAcks)
}
