package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrAdvanceOrderCommandIsNotConstructed = errors.New(
	"AdvanceOrderCommand must be created via NewAdvanceOrderCommand constructor",
)

// AdvanceOrderCommand moves an accepted order forward on behalf of its vendor:
// vendor_accepted to in_progress, or in_progress to completed.
type AdvanceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	vendorID kernel.UUID
	target   order.Status

	guard guard.ConstructorGuard
}

func NewAdvanceOrderCommand(orderID, vendorID kernel.UUID, target order.Status) (AdvanceOrderCommand, error) {
	var targetErr error
	if target != order.InProgress && target != order.Completed {
		targetErr = errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a status a vendor can move an order to", target),
		)
	}

	if err := errors.Join(orderID.Validate(), vendorID.Validate(), targetErr); err != nil {
		return AdvanceOrderCommand{}, err
	}

	return AdvanceOrderCommand{
		orderID:  orderID,
		vendorID: vendorID,
		target:   target,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c AdvanceOrderCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceOrderCommandIsNotConstructed)
}

func (c AdvanceOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AdvanceOrderCommand) VendorID() kernel.UUID {
	return c.vendorID
}

func (c AdvanceOrderCommand) Target() order.Status {
	return c.target
}
