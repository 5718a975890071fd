package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrVendorAcceptCommandIsNotConstructed = errors.New(
	"VendorAcceptCommand must be created via NewVendorAcceptCommand constructor",
)

// VendorAcceptCommand is a vendor claiming an offered order.
type VendorAcceptCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	vendorID kernel.UUID

	guard guard.ConstructorGuard
}

func NewVendorAcceptCommand(orderID, vendorID kernel.UUID) (VendorAcceptCommand, error) {
	cmd := VendorAcceptCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(orderID.Validate(), vendorID.Validate()); err != nil {
		return VendorAcceptCommand{}, err
	}

	cmd.orderID = orderID
	cmd.vendorID = vendorID
	return cmd, nil
}

func (c VendorAcceptCommand) Validate() error {
	return c.guard.Validate(ErrVendorAcceptCommandIsNotConstructed)
}

func (c VendorAcceptCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c VendorAcceptCommand) VendorID() kernel.UUID {
	return c.vendorID
}
