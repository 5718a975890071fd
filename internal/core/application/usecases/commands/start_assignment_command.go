package commands

import (
	"errors"
	"math"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrStartAssignmentCommandIsNotConstructed = errors.New(
	"StartAssignmentCommand must be created via NewStartAssignmentCommand constructor",
)

// StartAssignmentCommand asks the orchestrator to push the first batch of offers for an order.
// Zero option values fall back to the configured defaults.
//
// Example:
//
//	cmd, err := NewStartAssignmentCommand(orderID, 10, 3, 120)
//	if err != nil {
//	    return err
//	}
//	batch, err := handler.Handle(ctx, cmd)
type StartAssignmentCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	options DispatchOptions

	guard guard.ConstructorGuard
}

func NewStartAssignmentCommand(
	orderID kernel.UUID,
	maxRadiusKm float64,
	batchSize int,
	timeoutSeconds int,
) (StartAssignmentCommand, error) {
	cmd := StartAssignmentCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setOptions(maxRadiusKm, batchSize, timeoutSeconds),
	); err != nil {
		return StartAssignmentCommand{}, err
	}

	return cmd, nil
}

func (c StartAssignmentCommand) Validate() error {
	return c.guard.Validate(ErrStartAssignmentCommandIsNotConstructed)
}

func (c StartAssignmentCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Options returns the requested options; zero fields mean "use the default".
func (c StartAssignmentCommand) Options() DispatchOptions {
	return c.options
}

func (c *StartAssignmentCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *StartAssignmentCommand) setOptions(maxRadiusKm float64, batchSize, timeoutSeconds int) error {
	var errList []error
	if math.IsNaN(maxRadiusKm) || maxRadiusKm < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("maxRadiusKm", maxRadiusKm, 0, math.Inf(1)))
	}
	if batchSize < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 0, math.MaxInt))
	}
	if timeoutSeconds < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("timeoutSeconds", timeoutSeconds, 0, math.MaxInt32))
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}

	c.options = DispatchOptions{
		MaxRadiusKm: maxRadiusKm,
		BatchSize:   batchSize,
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
	}
	return nil
}
