package commands

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"go.uber.org/zap"
)

// CancelOrderCommandHandler cancels an order. Accepts that arrive afterwards fail with
// INVALID_STATE because the order is terminal.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	notifier   notifier
	clock      kernel.Clock
	logger     *zap.Logger
}

func NewCancelOrderCommandHandler(
	uowFactory UoWFactory,
	dispatcher ports.NotificationDispatcher,
	clock kernel.Clock,
	logger *zap.Logger,
) CancelOrderCommandHandler {
	logger = logger.With(zap.String("component", "cancel_order"))
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   newNotifier(dispatcher, logger),
		clock:      clock,
		logger:     logger,
	}
}

func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if o.Status().IsTerminal() {
		return errs.NewInvalidStateError("order", o.Status().String(), "order already finalized")
	}

	assignments := uow.AssignmentRepository()
	pushed, err := assignments.FindPushedByOrder(ctx, o.ID())
	if err != nil {
		return err
	}

	now := h.clock.Now()
	for _, row := range pushed {
		if err = row.Reject(assignment.ReasonOrderCancelled, now); err != nil {
			return err
		}
		if err = assignments.Update(ctx, row); err != nil {
			return err
		}
	}

	if err = o.Cancel(); err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.Info("order cancelled",
		zap.String("orderId", o.ID().String()),
		zap.String("reason", cmd.Reason()),
		zap.Int("closedOffers", len(pushed)),
	)
	h.notifier.orderCancelled(ctx, o, cmd.Reason(), pushed)
	return nil
}
