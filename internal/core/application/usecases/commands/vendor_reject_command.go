package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrVendorRejectCommandIsNotConstructed = errors.New(
	"VendorRejectCommand must be created via NewVendorRejectCommand constructor",
)

// VendorRejectCommand is a vendor declining an offered order. A blank reason is stored as DECLINED.
type VendorRejectCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	vendorID kernel.UUID
	reason   string

	guard guard.ConstructorGuard
}

func NewVendorRejectCommand(orderID, vendorID kernel.UUID, reason string) (VendorRejectCommand, error) {
	if err := errors.Join(orderID.Validate(), vendorID.Validate()); err != nil {
		return VendorRejectCommand{}, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = assignment.ReasonDeclined
	}

	return VendorRejectCommand{
		orderID:  orderID,
		vendorID: vendorID,
		reason:   reason,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c VendorRejectCommand) Validate() error {
	return c.guard.Validate(ErrVendorRejectCommandIsNotConstructed)
}

func (c VendorRejectCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c VendorRejectCommand) VendorID() kernel.UUID {
	return c.vendorID
}

func (c VendorRejectCommand) Reason() string {
	return c.reason
}
