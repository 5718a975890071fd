package commands

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"go.uber.org/zap"
)

// RejectResult reports what the rejection triggered.
type RejectResult struct {
	// Fallback is non-empty when the rejected offer was the last open one.
	Fallback ExhaustionOutcome
}

// VendorRejectCommandHandler closes a vendor's open offer and, when it was the last one
// for the order, hands over to the orchestrator's fallback.
type VendorRejectCommandHandler struct {
	uowFactory   UoWFactory
	orchestrator *AssignmentOrchestrator
	clock        kernel.Clock
	logger       *zap.Logger
}

func NewVendorRejectCommandHandler(
	uowFactory UoWFactory,
	orchestrator *AssignmentOrchestrator,
	clock kernel.Clock,
	logger *zap.Logger,
) VendorRejectCommandHandler {
	return VendorRejectCommandHandler{
		uowFactory:   uowFactory,
		orchestrator: orchestrator,
		clock:        clock,
		logger:       logger.With(zap.String("component", "vendor_reject")),
	}
}

// Handle rejects the offer.
//
// Errors:
//   - NOT_FOUND when the order does not exist or the vendor has no open offer
//   - EXPIRED when the offer deadline passed (the row is moved to EXPIRED)
//
// A failing fallback is logged and left to the expiry sweep; the rejection itself stands.
func (h VendorRejectCommandHandler) Handle(ctx context.Context, cmd VendorRejectCommand) (RejectResult, error) {
	if err := cmd.Validate(); err != nil {
		return RejectResult{}, err
	}

	orderID, vendorID := cmd.OrderID(), cmd.VendorID()
	log := h.logger.With(zap.String("orderId", orderID.String()), zap.String("vendorId", vendorID.String()))

	remaining, err := h.reject(ctx, orderID, vendorID, cmd.Reason())
	if errs.KindOf(err) == errs.KindExpired {
		if _, _, expireErr := h.orchestrator.ExpireOffers(ctx, orderID); expireErr != nil {
			log.Warn("lazy expiry failed", zap.Error(expireErr))
		}
		return RejectResult{}, err
	}
	if err != nil {
		return RejectResult{}, err
	}

	log.Debug("offer rejected", zap.String("reason", cmd.Reason()), zap.Int("remainingOffers", remaining))
	if remaining > 0 {
		return RejectResult{}, nil
	}

	outcome, err := h.orchestrator.OnAllPushedExhausted(ctx, orderID)
	if err != nil {
		log.Error("fallback failed", zap.Error(err))
		return RejectResult{}, nil
	}
	return RejectResult{Fallback: outcome}, nil
}

func (h VendorRejectCommandHandler) reject(ctx context.Context, orderID, vendorID kernel.UUID, reason string) (int, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if _, err := uow.OrderRepository().GetForUpdate(ctx, orderID); err != nil {
		return 0, err
	}

	assignments := uow.AssignmentRepository()
	row, err := assignments.GetPushed(ctx, orderID, vendorID)
	if err != nil {
		return 0, err
	}

	now := h.clock.Now()
	if row.IsExpired(now) {
		return 0, errs.NewOfferExpiredError(orderID.String(), vendorID.String(), row.ExpiresAt())
	}

	if err = row.Reject(reason, now); err != nil {
		return 0, err
	}
	if err = assignments.Update(ctx, row); err != nil {
		return 0, err
	}

	pushed, err := assignments.FindPushedByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}
	return len(pushed), nil
}
