package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"

	"go.uber.org/zap"
)

// SweepResult summarises one sweep run.
type SweepResult struct {
	OrdersChecked   int
	OffersExpired   int
	BatchesPushed   int
	OrdersFailed    int
	StrandedHandled int
}

func (r *SweepResult) add(outcome ExhaustionOutcome) {
	if outcome.NextBatch != nil {
		r.BatchesPushed++
	}
	if outcome.Failed {
		r.OrdersFailed++
	}
}

// ExpireOffersCommandHandler is the background timeout sweep. It expires overdue offers
// order by order and runs the fallback where a batch is exhausted. It also recovers
// assigned orders that were left with no open offer, for example when a fallback failed
// after a rejection committed.
type ExpireOffersCommandHandler struct {
	uowFactory   UoWFactory
	orchestrator *AssignmentOrchestrator
	clock        kernel.Clock
	logger       *zap.Logger
}

func NewExpireOffersCommandHandler(
	uowFactory UoWFactory,
	orchestrator *AssignmentOrchestrator,
	clock kernel.Clock,
	logger *zap.Logger,
) ExpireOffersCommandHandler {
	return ExpireOffersCommandHandler{
		uowFactory:   uowFactory,
		orchestrator: orchestrator,
		clock:        clock,
		logger:       logger.With(zap.String("component", "offer_sweep")),
	}
}

// Handle runs one sweep. Per-order failures do not stop the sweep; they are joined
// into the returned error.
func (h ExpireOffersCommandHandler) Handle(ctx context.Context, cmd ExpireOffersCommand) (SweepResult, error) {
	if err := cmd.Validate(); err != nil {
		return SweepResult{}, err
	}

	reader := h.uowFactory.Create()
	overdue, err := reader.AssignmentRepository().FindOrdersWithExpiredOffers(ctx, h.clock.Now(), cmd.Limit())
	if err != nil {
		return SweepResult{}, err
	}

	var (
		result  SweepResult
		errList []error
	)
	for _, orderID := range overdue {
		if ctx.Err() != nil {
			return result, errors.Join(append(errList, ctx.Err())...)
		}
		result.OrdersChecked++

		expired, outcome, expireErr := h.orchestrator.ExpireOffers(ctx, orderID)
		result.OffersExpired += expired
		result.add(outcome)
		if expireErr != nil {
			h.logger.Warn("expiry failed", zap.String("orderId", orderID.String()), zap.Error(expireErr))
			errList = append(errList, expireErr)
		}
	}

	stranded, err := reader.OrderRepository().FindStrandedAssigned(ctx, cmd.Limit())
	if err != nil {
		return result, errors.Join(append(errList, err)...)
	}
	for _, orderID := range stranded {
		outcome, fallbackErr := h.orchestrator.OnAllPushedExhausted(ctx, orderID)
		result.StrandedHandled++
		result.add(outcome)
		if fallbackErr != nil {
			h.logger.Warn("stranded order recovery failed", zap.String("orderId", orderID.String()), zap.Error(fallbackErr))
			errList = append(errList, fallbackErr)
		}
	}

	return result, errors.Join(errList...)
}
