package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrForceAssignCommandIsNotConstructed = errors.New(
	"ForceAssignCommand must be created via NewForceAssignCommand constructor",
)

// ForceAssignCommand is an administrative assignment that bypasses the offer race.
type ForceAssignCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	vendorID kernel.UUID

	guard guard.ConstructorGuard
}

func NewForceAssignCommand(orderID, vendorID kernel.UUID) (ForceAssignCommand, error) {
	if err := errors.Join(orderID.Validate(), vendorID.Validate()); err != nil {
		return ForceAssignCommand{}, err
	}

	return ForceAssignCommand{
		orderID:  orderID,
		vendorID: vendorID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ForceAssignCommand) Validate() error {
	return c.guard.Validate(ErrForceAssignCommandIsNotConstructed)
}

func (c ForceAssignCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ForceAssignCommand) VendorID() kernel.UUID {
	return c.vendorID
}
