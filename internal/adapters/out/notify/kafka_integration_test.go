package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dispatch/internal/adapters/out/notify"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func TestKafkaDispatcher_PublishesToTopic(t *testing.T) {
	broker := setupKafka(t)
	const topic = "dispatch-events"

	d := notify.NewKafkaDispatcher([]string{broker}, topic)
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// the first write may race topic auto-creation
	require.Eventually(t, func() bool {
		return d.Publish(ctx, "order:o-7", "order.assigned", map[string]any{"vendorId": "v-3"}) == nil
	}, 20*time.Second, 500*time.Millisecond)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  "dispatch-test",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)

	assert.Equal(t, "order:o-7", string(msg.Key))
	var envelope notify.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.Equal(t, "order.assigned", envelope.Event)
	assert.Equal(t, "v-3", envelope.Payload["vendorId"])
}
