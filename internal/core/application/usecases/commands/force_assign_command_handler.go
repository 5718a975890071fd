package commands

import (
	"context"
	"fmt"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"go.uber.org/zap"
)

// ForceAssignCommandHandler hands an order to a vendor in one authoritative write.
// It takes no distributed lock: the order row lock already orders it against any
// concurrent winner commit.
type ForceAssignCommandHandler struct {
	uowFactory UoWFactory
	notifier   notifier
	clock      kernel.Clock
	logger     *zap.Logger
}

func NewForceAssignCommandHandler(
	uowFactory UoWFactory,
	dispatcher ports.NotificationDispatcher,
	clock kernel.Clock,
	logger *zap.Logger,
) ForceAssignCommandHandler {
	logger = logger.With(zap.String("component", "force_assign"))
	return ForceAssignCommandHandler{
		uowFactory: uowFactory,
		notifier:   newNotifier(dispatcher, logger),
		clock:      clock,
		logger:     logger,
	}
}

// Handle force-assigns the order.
//
// Errors:
//   - NOT_FOUND when the order or vendor does not exist
//   - VALIDATION when the vendor is not approved
//   - INVALID_STATE "order already finalized" for completed, cancelled or failed orders,
//     and INVALID_STATE for orders that already have an accepted vendor
func (h ForceAssignCommandHandler) Handle(ctx context.Context, cmd ForceAssignCommand) error {
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

	v, err := uow.VendorRepository().Get(ctx, cmd.VendorID())
	if err != nil {
		return err
	}
	if !v.IsApproved() {
		return errs.NewValueIsInvalidErrorWithCause("vendor", fmt.Errorf("vendor %s is %s, not approved", v.ID(), v.Status()))
	}

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	switch {
	case o.Status().IsTerminal():
		return errs.NewInvalidStateError("order", o.Status().String(), "order already finalized")
	case o.Status().RequiresVendor():
		return errs.NewInvalidStateError("order", o.Status().String(), "order already has an accepted vendor")
	}

	assignments := uow.AssignmentRepository()
	history, err := assignments.FindByOrder(ctx, o.ID())
	if err != nil {
		return err
	}

	now := h.clock.Now()
	batch := 1
	outstanding := make([]*assignment.Assignment, 0)
	for _, row := range history {
		batch = max(batch, row.Metadata().Batch)
		if !row.IsPushed() {
			continue
		}
		if err = row.Reject(assignment.ReasonForceAssigned, now); err != nil {
			return err
		}
		if err = assignments.Update(ctx, row); err != nil {
			return err
		}
		outstanding = append(outstanding, row)
	}

	distance, err := v.DistanceTo(o.Location())
	if err != nil {
		return err
	}

	forced, err := assignment.NewForcedAcceptance(kernel.NewUUID(), o.ID(), v.ID(), now, assignment.Metadata{
		DistanceKm: distance,
		Batch:      batch,
	})
	if err != nil {
		return err
	}

	if err = o.ForceAssign(v.ID(), now); err != nil {
		return err
	}
	if err = assignments.AddBatch(ctx, []*assignment.Assignment{forced}); err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.Info("order force assigned",
		zap.String("orderId", o.ID().String()),
		zap.String("vendorId", v.ID().String()),
		zap.Int("rejectedOffers", len(outstanding)),
	)
	h.notifier.orderAssigned(ctx, o, v.ID(), outstanding, true)
	return nil
}
