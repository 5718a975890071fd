package assignment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrAssignmentIsNotConstructed is returned when using an improperly initialized Assignment.
var ErrAssignmentIsNotConstructed = errors.New("Assignment must be created via NewOffer or NewForcedAcceptance")

// Assignment is one row of the append-only ledger: a single offer of an order to a vendor
// and the vendor's (or the system's) response to it.
//
// Business rules:
//   - Rows are created PUSHED (an offer) or ACCEPTED (a force assignment)
//   - Only a PUSHED row can change status, and it changes exactly once
//   - respondedAt is set exactly when the row leaves PUSHED
//   - Rows are never deleted
type Assignment struct {
	id          kernel.UUID
	orderID     kernel.UUID
	vendorID    kernel.UUID
	status      Status
	pushedAt    time.Time
	respondedAt *time.Time
	expiresAt   time.Time
	metadata    Metadata
	guard       guard.ConstructorGuard
}

// NewOffer creates a PUSHED row that expires at expiresAt.
//
// Example:
//
//	a, err := assignment.NewOffer(kernel.NewUUID(), orderID, vendorID, now, now.Add(2*time.Minute),
//	    assignment.Metadata{DistanceKm: 1.2, Batch: 1})
func NewOffer(
	id, orderID, vendorID kernel.UUID,
	pushedAt, expiresAt time.Time,
	metadata Metadata,
) (*Assignment, error) {
	a := &Assignment{
		status: Pushed,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setIDs(id, orderID, vendorID),
		a.setTimes(pushedAt, expiresAt),
		a.setMetadata(metadata),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// NewForcedAcceptance creates an ACCEPTED row for an administrative assignment.
// The row is marked forceAssigned and its deadline equals the assignment time.
func NewForcedAcceptance(id, orderID, vendorID kernel.UUID, at time.Time, metadata Metadata) (*Assignment, error) {
	metadata.ForceAssigned = true
	if metadata.Batch == 0 {
		metadata.Batch = 1
	}

	a := &Assignment{
		status:      Accepted,
		pushedAt:    at,
		expiresAt:   at,
		respondedAt: &at,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setIDs(id, orderID, vendorID),
		a.setMetadata(metadata),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// RestoreAssignment rehydrates a ledger row from persistence.
func RestoreAssignment(
	id, orderID, vendorID kernel.UUID,
	status Status,
	pushedAt time.Time,
	respondedAt *time.Time,
	expiresAt time.Time,
	metadata Metadata,
) (*Assignment, error) {
	a := &Assignment{
		pushedAt:    pushedAt,
		expiresAt:   expiresAt,
		respondedAt: respondedAt,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setIDs(id, orderID, vendorID),
		a.setStatus(status, respondedAt),
		a.setMetadata(metadata),
	); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Assignment) Validate() error {
	if a == nil {
		return ErrAssignmentIsNotConstructed
	}
	return a.guard.Validate(ErrAssignmentIsNotConstructed)
}

func (a *Assignment) ID() kernel.UUID {
	return a.id
}

func (a *Assignment) OrderID() kernel.UUID {
	return a.orderID
}

func (a *Assignment) VendorID() kernel.UUID {
	return a.vendorID
}

func (a *Assignment) Status() Status {
	return a.status
}

func (a *Assignment) PushedAt() time.Time {
	return a.pushedAt
}

func (a *Assignment) RespondedAt() *time.Time {
	return a.respondedAt
}

func (a *Assignment) ExpiresAt() time.Time {
	return a.expiresAt
}

// Metadata returns a copy of the row's metadata.
func (a *Assignment) Metadata() Metadata {
	return a.metadata
}

func (a *Assignment) IsPushed() bool {
	return a.status == Pushed
}

// IsExpired reports whether a PUSHED row's deadline has passed at now.
// A response exactly at expiresAt is still in time.
func (a *Assignment) IsExpired(now time.Time) bool {
	return a.status == Pushed && now.After(a.expiresAt)
}

// Accept marks the offer as won.
func (a *Assignment) Accept(at time.Time) error {
	return a.respond(Accepted, at, "")
}

// Reject closes the offer with reason. A blank reason is stored as DECLINED.
func (a *Assignment) Reject(reason string, at time.Time) error {
	if strings.TrimSpace(reason) == "" {
		reason = ReasonDeclined
	}
	return a.respond(Rejected, at, reason)
}

// Expire closes an offer whose deadline passed.
func (a *Assignment) Expire(at time.Time) error {
	return a.respond(Expired, at, "")
}

func (a *Assignment) respond(target Status, at time.Time, reason string) error {
	newStatus, err := a.status.respond(target)
	if err != nil {
		return err
	}

	a.status = newStatus
	a.respondedAt = &at
	if reason != "" {
		a.metadata.RejectionReason = reason
	}
	return nil
}

func (a *Assignment) setIDs(id, orderID, vendorID kernel.UUID) error {
	if err := errors.Join(id.Validate(), orderID.Validate(), vendorID.Validate()); err != nil {
		return err
	}
	a.id = id
	a.orderID = orderID
	a.vendorID = vendorID
	return nil
}

func (a *Assignment) setTimes(pushedAt, expiresAt time.Time) error {
	if pushedAt.IsZero() {
		return errs.NewValueIsRequiredError("pushedAt")
	}
	if !expiresAt.After(pushedAt) {
		return errs.NewValueIsInvalidErrorWithCause(
			"expiresAt",
			fmt.Errorf("deadline %s is not after push time %s", expiresAt, pushedAt),
		)
	}
	a.pushedAt = pushedAt
	a.expiresAt = expiresAt
	return nil
}

func (a *Assignment) setStatus(status Status, respondedAt *time.Time) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if status == Pushed && respondedAt != nil {
		return errs.NewValueIsInvalidErrorWithCause("respondedAt", fmt.Errorf("%s row cannot have a response time", status))
	}
	if status != Pushed && respondedAt == nil {
		return errs.NewValueIsInvalidErrorWithCause("respondedAt", fmt.Errorf("%s row must have a response time", status))
	}
	a.status = status
	return nil
}

func (a *Assignment) setMetadata(metadata Metadata) error {
	if metadata.Batch < 1 {
		return errs.NewValueIsOutOfRangeError("batch", metadata.Batch, 1, "unbounded")
	}
	if metadata.DistanceKm < 0 {
		return errs.NewValueIsOutOfRangeError("distanceKm", metadata.DistanceKm, 0, "unbounded")
	}
	a.metadata = metadata
	return nil
}
