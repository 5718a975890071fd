package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrRegisterOrderCommandIsNotConstructed = errors.New(
	"RegisterOrderCommand must be created via NewRegisterOrderCommand constructor",
)

// RegisterOrderCommand brings an order from the order service into dispatch.
//
// Example:
//
//	cmd, err := NewRegisterOrderCommand(orderID, "ORD-1001", 12.97, 77.59, "paid")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	err = handler.Handle(ctx, cmd)
type RegisterOrderCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	displayID string
	location  kernel.Location
	status    order.Status

	guard guard.ConstructorGuard
}

// NewRegisterOrderCommand validates the intake payload. status must be one of
// awaiting_assignment, payment_verified or paid; an empty status means awaiting_assignment.
func NewRegisterOrderCommand(orderID kernel.UUID, displayID string, lat, lon float64, status string) (RegisterOrderCommand, error) {
	cmd := RegisterOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	location, locErr := kernel.NewLocation(lat, lon)

	if err := errors.Join(
		orderID.Validate(),
		cmd.setDisplayID(displayID),
		locErr,
		cmd.setStatus(status),
	); err != nil {
		return RegisterOrderCommand{}, err
	}

	cmd.orderID = orderID
	cmd.location = location
	return cmd, nil
}

func (c RegisterOrderCommand) Validate() error {
	return c.guard.Validate(ErrRegisterOrderCommandIsNotConstructed)
}

func (c RegisterOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c RegisterOrderCommand) DisplayID() string {
	return c.displayID
}

func (c RegisterOrderCommand) Location() kernel.Location {
	return c.location
}

func (c RegisterOrderCommand) Status() order.Status {
	return c.status
}

func (c *RegisterOrderCommand) setDisplayID(displayID string) error {
	displayID = strings.TrimSpace(displayID)
	if displayID == "" {
		return errs.NewValueIsRequiredError("displayId")
	}
	c.displayID = displayID
	return nil
}

func (c *RegisterOrderCommand) setStatus(status string) error {
	if status == "" {
		c.status = order.AwaitingAssignment
		return nil
	}

	parsed, err := order.ParseStatus(status)
	if err != nil {
		return err
	}
	if !parsed.IsAwaitingAssignment() {
		return errs.NewValueIsInvalidError("status must be awaiting_assignment, payment_verified or paid")
	}
	c.status = parsed
	return nil
}
