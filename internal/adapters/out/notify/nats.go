package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsDispatcher publishes each event on <prefix>.<channel>, with ':' in the
// channel replaced by '.'. "vendor:42" becomes "dispatch.vendor.42".
type NatsDispatcher struct {
	conn   *nats.Conn
	prefix string
	now    func() time.Time
}

func NewNatsDispatcher(conn *nats.Conn, prefix string) *NatsDispatcher {
	return &NatsDispatcher{conn: conn, prefix: prefix, now: time.Now}
}

// Subject returns the subject events of channel are published on.
func (d *NatsDispatcher) Subject(channel string) string {
	return d.prefix + "." + strings.ReplaceAll(channel, ":", ".")
}

func (d *NatsDispatcher) Publish(ctx context.Context, channel, event string, payload map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeEnvelope(channel, event, payload, d.now())
	if err != nil {
		return err
	}

	msg := nats.NewMsg(d.Subject(channel))
	msg.Data = data
	msg.Header.Set("event_type", event)

	if err = d.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s failed: %w", event, err)
	}
	return nil
}
