package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/adapters/out/notify"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Publish(ctx context.Context, channel, event string, payload map[string]any) error {
	args := m.Called(ctx, channel, event, payload)
	return args.Error(0)
}

func TestSafeDispatcher_PassesThrough(t *testing.T) {
	next := &MockDispatcher{}
	payload := map[string]any{"orderId": "o-1"}
	next.On("Publish", mock.Anything, "order:o-1", "order.assigned", payload).Return(nil).Once()

	d := notify.NewSafeDispatcher(next, notify.DefaultBreakerSettings(), zap.NewNop())

	require.NoError(t, d.Publish(t.Context(), "order:o-1", "order.assigned", payload))
	next.AssertExpectations(t)
}

func TestSafeDispatcher_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &MockDispatcher{}
	boom := errors.New("broker down")
	next.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom).Times(3)

	d := notify.NewSafeDispatcher(next, notify.BreakerSettings{
		ConsecutiveFailures: 3,
		OpenTimeout:         time.Minute,
	}, zap.NewNop())

	for range 3 {
		require.ErrorIs(t, d.Publish(t.Context(), "admin", "order.assignment_failed", nil), boom)
	}
	assert.Equal(t, gobreaker.StateOpen, d.State())

	err := d.Publish(t.Context(), "admin", "order.assignment_failed", nil)

	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	next.AssertNumberOfCalls(t, "Publish", 3)
}

func TestSafeDispatcher_BoundsPublishTime(t *testing.T) {
	next := &MockDispatcher{}
	next.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
		}).
		Return(nil).Once()

	d := notify.NewSafeDispatcher(next, notify.DefaultBreakerSettings(), zap.NewNop())

	require.NoError(t, d.Publish(context.Background(), "vendor:v-1", "order.offered", nil))
	next.AssertExpectations(t)
}
