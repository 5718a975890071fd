package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
)

// RegisterOrderCommandHandler persists a new order waiting for assignment.
type RegisterOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewRegisterOrderCommandHandler(uowFactory OrderUoWFactory) RegisterOrderCommandHandler {
	return RegisterOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h RegisterOrderCommandHandler) Handle(ctx context.Context, cmd RegisterOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.DisplayID(), cmd.Location(), cmd.Status())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
