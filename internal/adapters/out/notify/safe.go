package notify

import (
	"context"
	"time"

	"dispatch/internal/core/ports"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerSettings configure the circuit breaker of a SafeDispatcher.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout time.Duration
	// PublishTimeout bounds a single publish.
	PublishTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		PublishTimeout:      3 * time.Second,
	}
}

// SafeDispatcher bounds each publish in time and stops calling a failing
// transport until the breaker half-opens. While open, Publish returns
// gobreaker.ErrOpenState at once.
type SafeDispatcher struct {
	next    ports.NotificationDispatcher
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
}

func NewSafeDispatcher(next ports.NotificationDispatcher, settings BreakerSettings, logger *zap.Logger) *SafeDispatcher {
	logger = logger.With(zap.String("component", "notify"))

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "notifications",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("notification breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &SafeDispatcher{next: next, breaker: breaker, timeout: settings.PublishTimeout}
}

func (d *SafeDispatcher) Publish(ctx context.Context, channel, event string, payload map[string]any) error {
	_, err := d.breaker.Execute(func() (struct{}, error) {
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		return struct{}{}, d.next.Publish(ctx, channel, event, payload)
	})
	return err
}

// State reports the breaker state, for health checks.
func (d *SafeDispatcher) State() gobreaker.State {
	return d.breaker.State()
}
