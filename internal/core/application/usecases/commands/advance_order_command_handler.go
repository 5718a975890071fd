package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"go.uber.org/zap"
)

// AdvanceOrderCommandHandler lets the assigned vendor start and complete an order.
// Skipping or reversing states fails with VALIDATION.
type AdvanceOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   notifier
}

func NewAdvanceOrderCommandHandler(
	uowFactory OrderUoWFactory,
	dispatcher ports.NotificationDispatcher,
	logger *zap.Logger,
) AdvanceOrderCommandHandler {
	return AdvanceOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   newNotifier(dispatcher, logger.With(zap.String("component", "advance_order"))),
	}
}

func (h AdvanceOrderCommandHandler) Handle(ctx context.Context, cmd AdvanceOrderCommand) error {
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

	orders := uow.OrderRepository()
	o, err := orders.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if cmd.Target() == order.InProgress {
		err = o.Start(cmd.VendorID())
	} else {
		err = o.Complete(cmd.VendorID())
	}
	if err != nil {
		return err
	}

	if err = orders.Update(ctx, o); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.notifier.statusChanged(ctx, o)
	return nil
}
