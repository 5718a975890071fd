package notify

import (
	"context"
	"errors"
	"sync"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/metrics"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

var (
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

// AsyncSettings size the publish queues of an AsyncDispatcher.
type AsyncSettings struct {
	// Workers is the number of publishing goroutines, each with its own queue.
	Workers int
	// QueueSize is the capacity of each worker queue.
	QueueSize int
}

func DefaultAsyncSettings() AsyncSettings {
	return AsyncSettings{Workers: 4, QueueSize: 256}
}

type event struct {
	ctx     context.Context
	channel string
	name    string
	payload map[string]any
}

// AsyncDispatcher queues events and publishes them from background workers, so
// Publish never waits on the transport. Events of one channel always go to the
// same worker and keep their order. When the queue of that worker is full the
// event is dropped and Publish returns ErrQueueFull.
type AsyncDispatcher struct {
	next   ports.NotificationDispatcher
	queues []chan event
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncDispatcher(next ports.NotificationDispatcher, settings AsyncSettings, logger *zap.Logger) *AsyncDispatcher {
	if settings.Workers <= 0 {
		settings.Workers = 1
	}
	if settings.QueueSize <= 0 {
		settings.QueueSize = 1
	}

	d := &AsyncDispatcher{
		next:   next,
		queues: make([]chan event, settings.Workers),
		logger: logger.With(zap.String("component", "notify")),
	}
	for i := range d.queues {
		d.queues[i] = make(chan event, settings.QueueSize)
		d.wg.Add(1)
		go d.work(d.queues[i])
	}
	return d
}

// Publish enqueues the event. The caller's cancellation does not reach the
// background publish; its values do.
func (d *AsyncDispatcher) Publish(ctx context.Context, channel, name string, payload map[string]any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	queue := d.queues[xxhash.Sum64String(channel)%uint64(len(d.queues))]
	select {
	case queue <- event{ctx: context.WithoutCancel(ctx), channel: channel, name: name, payload: payload}:
		return nil
	default:
		metrics.NotificationsDroppedTotal.WithLabelValues(name).Inc()
		return ErrQueueFull
	}
}

func (d *AsyncDispatcher) work(queue <-chan event) {
	defer d.wg.Done()
	for ev := range queue {
		if err := d.next.Publish(ev.ctx, ev.channel, ev.name, ev.payload); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues(ev.name).Inc()
			d.logger.Warn("notification failed",
				zap.String("channel", ev.channel),
				zap.String("event", ev.name),
				zap.Error(err),
			)
		}
	}
}

// Close stops accepting events and waits until the queued ones are published
// or ctx is done.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, queue := range d.queues {
			close(queue)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
