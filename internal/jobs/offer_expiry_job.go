package jobs

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultOfferExpirySpec runs the sweep every five seconds.
const DefaultOfferExpirySpec = "*/5 * * * * *"

// ExpireOffersHandler runs one offer expiry sweep.
type ExpireOffersHandler interface {
	Handle(ctx context.Context, cmd commands.ExpireOffersCommand) (commands.SweepResult, error)
}

// OfferExpiryJob periodically expires overdue offers and pushes fallback batches
// for the orders that ran out of live offers.
type OfferExpiryJob struct {
	handler ExpireOffersHandler
	spec    string
	limit   int
	timeout time.Duration
	cron    *cron.Cron
	logger  *zap.Logger
}

// NewOfferExpiryJob creates the sweep job. An empty spec falls back to
// DefaultOfferExpirySpec, a non-positive limit to commands.DefaultSweepLimit.
func NewOfferExpiryJob(handler ExpireOffersHandler, spec string, limit int, logger *zap.Logger) *OfferExpiryJob {
	if spec == "" {
		spec = DefaultOfferExpirySpec
	}
	if limit <= 0 {
		limit = commands.DefaultSweepLimit
	}
	return &OfferExpiryJob{
		handler: handler,
		spec:    spec,
		limit:   limit,
		timeout: 30 * time.Second,
		// A slow sweep must not overlap with the next tick.
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.With(zap.String("component", "offer_expiry_job")),
	}
}

// Start schedules the sweep.
func (j *OfferExpiryJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		_, _ = j.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", j.spec, err)
	}

	j.cron.Start()
	j.logger.Info("offer expiry job started", zap.String("spec", j.spec), zap.Int("limit", j.limit))
	return nil
}

// RunOnce executes a single sweep and logs what it did.
func (j *OfferExpiryJob) RunOnce(ctx context.Context) (commands.SweepResult, error) {
	cmd, err := commands.NewExpireOffersCommand(j.limit)
	if err != nil {
		return commands.SweepResult{}, err
	}

	result, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.Error("offer expiry sweep failed", zap.Error(err))
		return result, err
	}

	if result.OffersExpired > 0 || result.StrandedHandled > 0 {
		j.logger.Info("offer expiry sweep finished",
			zap.Int("orders_checked", result.OrdersChecked),
			zap.Int("offers_expired", result.OffersExpired),
			zap.Int("batches_pushed", result.BatchesPushed),
			zap.Int("orders_failed", result.OrdersFailed),
			zap.Int("stranded_handled", result.StrandedHandled),
		)
	}
	return result, nil
}

// Stop unschedules the sweep and waits for a running one to finish.
func (j *OfferExpiryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("offer expiry job stopped")
}
