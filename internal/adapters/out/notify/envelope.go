// Package notify publishes dispatch events to realtime transports.
//
// Every transport carries the same JSON envelope. Rooms map to the message key
// (Kafka) or to the subject suffix (NATS), so a gateway can fan events out to
// vendor, customer and admin sockets.
package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire form of one event.
type Envelope struct {
	Channel     string         `json:"channel"`
	Event       string         `json:"event"`
	Payload     map[string]any `json:"payload"`
	PublishedAt time.Time      `json:"publishedAt"`
}

func encodeEnvelope(channel, event string, payload map[string]any, now time.Time) ([]byte, error) {
	b, err := json.Marshal(Envelope{
		Channel:     channel,
		Event:       event,
		Payload:     payload,
		PublishedAt: now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope failed: %w", event, err)
	}
	return b, nil
}
