package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root for a delivery order waiting to be matched with a vendor.
//
// Order follows these invariants:
//   - Must have a valid unique identifier and a non-empty display id
//   - Must have a valid delivery location
//   - assignedVendorID is set if and only if status is vendor_accepted, in_progress or completed
//   - Status transitions follow the rules in Status
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// displayID is the human-readable reference shown to customers and vendors
	displayID string

	// location is the delivery destination
	location kernel.Location

	// status represents the current state in the order lifecycle
	status Status

	// assignedVendorID is the winning vendor (nil until a vendor accepts)
	assignedVendorID *kernel.UUID

	// assignedAt is when the first batch of offers was pushed
	assignedAt *time.Time

	// acceptedAt is when a vendor won the order
	acceptedAt *time.Time

	guard guard.ConstructorGuard
}

// NewOrder registers an order that is ready to be dispatched.
//
// Parameters:
//   - id: Unique identifier for the order (must be valid UUID)
//   - displayID: Human-readable reference (must not be blank)
//   - location: Delivery location with validated coordinates
//   - status: One of awaiting_assignment, payment_verified or paid
//
// Example:
//
//	location, _ := kernel.NewLocation(12.97, 77.59)
//	o, err := order.NewOrder(kernel.NewUUID(), "ORD-1001", location, order.Paid)
//	if err != nil {
//	    // Handle validation error
//	}
func NewOrder(id kernel.UUID, displayID string, location kernel.Location, status Status) (*Order, error) {
	o := &Order{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setDisplayID(displayID),
		o.setLocation(location),
		o.setInitialStatus(status),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rehydrates an order from persistence. It validates every field and the
// status/vendor consistency rule.
func RestoreOrder(
	id kernel.UUID,
	displayID string,
	location kernel.Location,
	status Status,
	assignedVendorID *kernel.UUID,
	assignedAt *time.Time,
	acceptedAt *time.Time,
) (*Order, error) {
	o := &Order{
		assignedAt: assignedAt,
		acceptedAt: acceptedAt,
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setDisplayID(displayID),
		o.setLocation(location),
		o.setStatus(status, assignedVendorID),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) DisplayID() string {
	return o.displayID
}

func (o *Order) Location() kernel.Location {
	return o.location
}

func (o *Order) Status() Status {
	return o.status
}

// AssignedVendor returns the winning vendor's ID, or nil while the order is unclaimed.
func (o *Order) AssignedVendor() *kernel.UUID {
	return o.assignedVendorID
}

func (o *Order) AssignedAt() *time.Time {
	return o.assignedAt
}

func (o *Order) AcceptedAt() *time.Time {
	return o.acceptedAt
}

// IsAssignedTo reports whether vendorID is the order's assigned vendor.
func (o *Order) IsAssignedTo(vendorID kernel.UUID) bool {
	return o.assignedVendorID != nil && o.assignedVendorID.IsEqual(vendorID)
}

// Offer moves a waiting order to assigned when its first batch of offers is pushed.
// at is recorded as assignedAt.
func (o *Order) Offer(at time.Time) error {
	newStatus, err := o.status.Offer()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.assignedAt = &at
	return nil
}

// Reoffer keeps the order assigned while a fallback batch is pushed.
func (o *Order) Reoffer() error {
	newStatus, err := o.status.Reoffer()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// Accept records vendorID as the winner of the order.
//
// This method enforces the following business rules:
//   - The vendor ID must be valid
//   - The order must be in assigned status
//
// After a successful call the order is vendor_accepted and AcceptedAt returns at.
func (o *Order) Accept(vendorID kernel.UUID, at time.Time) error {
	if err := vendorID.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Accept()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.assignedVendorID = &vendorID
	o.acceptedAt = &at
	return nil
}

// ForceAssign hands the order to vendorID without an offer round.
// Allowed from any status that has no accepted vendor yet.
func (o *Order) ForceAssign(vendorID kernel.UUID, at time.Time) error {
	if err := vendorID.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.ForceAssign()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.assignedVendorID = &vendorID
	o.acceptedAt = &at
	if o.assignedAt == nil {
		o.assignedAt = &at
	}
	return nil
}

// Start moves an accepted order to in_progress. Only the assigned vendor may start it.
func (o *Order) Start(vendorID kernel.UUID) error {
	if err := o.validateAssignedVendor(vendorID); err != nil {
		return err
	}

	newStatus, err := o.status.Start()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// Complete marks an in-progress order as delivered. Only the assigned vendor may complete it.
func (o *Order) Complete(vendorID kernel.UUID) error {
	if err := o.validateAssignedVendor(vendorID); err != nil {
		return err
	}

	newStatus, err := o.status.Complete()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// Cancel moves any non-terminal order to cancelled and clears the assigned vendor.
// The assignment ledger keeps the record of who held the order.
func (o *Order) Cancel() error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.assignedVendorID = nil
	return nil
}

// FailAssignment marks the order as having exhausted every candidate vendor.
func (o *Order) FailAssignment() error {
	newStatus, err := o.status.FailAssignment()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

func (o *Order) validateAssignedVendor(vendorID kernel.UUID) error {
	if err := vendorID.Validate(); err != nil {
		return err
	}
	if !o.IsAssignedTo(vendorID) {
		return errs.NewValueIsInvalidErrorWithCause(
			"vendorID",
			fmt.Errorf("vendor %s is not assigned to order %s", vendorID, o.id),
		)
	}
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setDisplayID(displayID string) error {
	if strings.TrimSpace(displayID) == "" {
		return errs.NewValueIsRequiredError("displayID")
	}
	o.displayID = displayID
	return nil
}

func (o *Order) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	o.location = location
	return nil
}

func (o *Order) setInitialStatus(status Status) error {
	if !status.IsAwaitingAssignment() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid initial status", status.String()),
		)
	}
	o.status = status
	return nil
}

func (o *Order) setStatus(status Status, vendorID *kernel.UUID) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if vendorID != nil {
		if err := vendorID.Validate(); err != nil {
			return err
		}
	}
	if err := status.ValidateCanHaveVendor(vendorID != nil); err != nil {
		return err
	}
	o.status = status
	o.assignedVendorID = vendorID
	return nil
}
