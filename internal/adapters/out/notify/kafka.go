package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher writes each event to one topic keyed by channel, so events of
// a room stay ordered within a partition.
type KafkaDispatcher struct {
	writer messageWriter
	now    func() time.Time
}

// KafkaBatchTimeout caps how long the writer waits to fill a batch before a
// synchronous write returns.
const KafkaBatchTimeout = 10 * time.Millisecond

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	return newKafkaDispatcher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           KafkaBatchTimeout,
		WriteTimeout:           5 * time.Second,
	})
}

func newKafkaDispatcher(writer messageWriter) *KafkaDispatcher {
	return &KafkaDispatcher{writer: writer, now: time.Now}
}

func (d *KafkaDispatcher) Publish(ctx context.Context, channel, event string, payload map[string]any) error {
	value, err := encodeEnvelope(channel, event, payload, d.now())
	if err != nil {
		return err
	}

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(channel),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s failed: %w", event, err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
