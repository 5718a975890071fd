package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockExpireOffersHandler struct{ mock.Mock }

func (m *MockExpireOffersHandler) Handle(ctx context.Context, cmd commands.ExpireOffersCommand) (commands.SweepResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.SweepResult), args.Error(1)
}

func limitIs(limit int) any {
	return mock.MatchedBy(func(cmd commands.ExpireOffersCommand) bool {
		return cmd.Validate() == nil && cmd.Limit() == limit
	})
}

func TestOfferExpiryJob_RunOnce_UsesConfiguredLimit(t *testing.T) {
	handler := &MockExpireOffersHandler{}
	handler.On("Handle", mock.Anything, limitIs(25)).
		Return(commands.SweepResult{OrdersChecked: 1, OffersExpired: 2, BatchesPushed: 1}, nil).Once()

	job := jobs.NewOfferExpiryJob(handler, "", 25, zap.NewNop())
	result, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.OffersExpired)
	handler.AssertExpectations(t)
}

func TestOfferExpiryJob_RunOnce_DefaultLimit(t *testing.T) {
	handler := &MockExpireOffersHandler{}
	handler.On("Handle", mock.Anything, limitIs(commands.DefaultSweepLimit)).
		Return(commands.SweepResult{}, nil).Once()

	_, err := jobs.NewOfferExpiryJob(handler, "", 0, zap.NewNop()).RunOnce(context.Background())

	require.NoError(t, err)
	handler.AssertExpectations(t)
}

func TestOfferExpiryJob_RunOnce_ReturnsHandlerError(t *testing.T) {
	handler := &MockExpireOffersHandler{}
	boom := errors.New("db down")
	handler.On("Handle", mock.Anything, mock.Anything).Return(commands.SweepResult{}, boom).Once()

	_, err := jobs.NewOfferExpiryJob(handler, "", 10, zap.NewNop()).RunOnce(context.Background())

	require.ErrorIs(t, err, boom)
}

func TestOfferExpiryJob_RunOnce_LogsSweepSummaryOnce(t *testing.T) {
	handler := &MockExpireOffersHandler{}
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(commands.SweepResult{OrdersChecked: 3, OffersExpired: 4, BatchesPushed: 2}, nil).Once()
	core, logs := observer.New(zapcore.InfoLevel)

	_, err := jobs.NewOfferExpiryJob(handler, "", 10, zap.New(core)).RunOnce(context.Background())

	require.NoError(t, err)
	summaries := logs.FilterMessage("offer expiry sweep finished").All()
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(4), summaries[0].ContextMap()["offers_expired"])
	assert.Equal(t, 1, logs.Len())
}

func TestOfferExpiryJob_RunOnce_QuietWhenNothingExpired(t *testing.T) {
	handler := &MockExpireOffersHandler{}
	handler.On("Handle", mock.Anything, mock.Anything).Return(commands.SweepResult{OrdersChecked: 0}, nil).Once()
	core, logs := observer.New(zapcore.InfoLevel)

	_, err := jobs.NewOfferExpiryJob(handler, "", 10, zap.New(core)).RunOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestOfferExpiryJob_StartRejectsBadSpec(t *testing.T) {
	job := jobs.NewOfferExpiryJob(&MockExpireOffersHandler{}, "not a cron spec", 10, zap.NewNop())

	require.Error(t, job.Start())
}

func TestOfferExpiryJob_RunsOnSchedule(t *testing.T) {
	handler := &MockExpireOffersHandler{}
	ran := make(chan struct{}, 4)
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(commands.SweepResult{}, nil).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		})

	manager := jobs.NewJobManager(handler, "* * * * * *", 5, zap.NewNop())
	require.NoError(t, manager.StartAll())
	defer manager.StopAll()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}
}
