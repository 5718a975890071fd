package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	awaiting_assignment ─┐
//	payment_verified ────┼──> assigned ──> vendor_accepted ──> in_progress ──> completed
//	paid ────────────────┘     │  ▲
//	                           └──┘ (fallback batch re-push)
//
//	cancelled          <── any non-terminal status
//	assignment_failed  <── awaiting_assignment, payment_verified, paid, assigned
//
// completed, cancelled and assignment_failed are terminal.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota
	AwaitingAssignment
	PaymentVerified
	Paid
	Assigned
	VendorAccepted
	InProgress
	Completed
	Cancelled
	AssignmentFailed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:            "unknown",
		AwaitingAssignment: "awaiting_assignment",
		PaymentVerified:    "payment_verified",
		Paid:               "paid",
		Assigned:           "assigned",
		VendorAccepted:     "vendor_accepted",
		InProgress:         "in_progress",
		Completed:          "completed",
		Cancelled:          "cancelled",
		AssignmentFailed:   "assignment_failed",
	}
}

// ParseStatus converts the persisted string form back into a Status.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks that s is one of the defined statuses.
func (s Status) Validate() error {
	if s <= Unknown || s > AssignmentFailed {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the persisted representation of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == AssignmentFailed
}

// IsAwaitingAssignment reports whether a first batch of offers may be pushed.
func (s Status) IsAwaitingAssignment() bool {
	return s == AwaitingAssignment || s == PaymentVerified || s == Paid
}

// IsWaitingForVendor reports whether the order still has no accepted vendor.
// This covers the pre-push states and assigned.
func (s Status) IsWaitingForVendor() bool {
	return s.IsAwaitingAssignment() || s == Assigned
}

// RequiresVendor reports whether an order in this status must carry an assigned vendor.
func (s Status) RequiresVendor() bool {
	return s == VendorAccepted || s == InProgress || s == Completed
}

// ValidateCanHaveVendor checks the consistency between status and vendor assignment.
//
// Business Rules:
//   - vendor_accepted, in_progress and completed orders must have a vendor
//   - every other status must not have one
func (s Status) ValidateCanHaveVendor(vendor bool) error {
	if vendor && !s.RequiresVendor() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have a vendor", s.String()),
		)
	}

	if !vendor && s.RequiresVendor() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no vendor", s.String()),
		)
	}

	return nil
}

// Offer transitions a waiting order to Assigned when its first batch is pushed.
func (s Status) Offer() (Status, error) {
	if !s.IsAwaitingAssignment() {
		return Unknown, transitionError(s, "offer")
	}
	return Assigned, nil
}

// Reoffer keeps an Assigned order Assigned while a fallback batch is pushed.
func (s Status) Reoffer() (Status, error) {
	if s != Assigned {
		return Unknown, transitionError(s, "re-offer")
	}
	return Assigned, nil
}

// Accept transitions Assigned to VendorAccepted.
func (s Status) Accept() (Status, error) {
	if s != Assigned {
		return Unknown, transitionError(s, "accept")
	}
	return VendorAccepted, nil
}

// ForceAssign transitions any waiting status to VendorAccepted, bypassing offers.
func (s Status) ForceAssign() (Status, error) {
	if !s.IsWaitingForVendor() {
		return Unknown, transitionError(s, "force assign")
	}
	return VendorAccepted, nil
}

// Start transitions VendorAccepted to InProgress.
func (s Status) Start() (Status, error) {
	if s != VendorAccepted {
		return Unknown, transitionError(s, "start")
	}
	return InProgress, nil
}

// Complete transitions InProgress to Completed.
func (s Status) Complete() (Status, error) {
	if s != InProgress {
		return Unknown, transitionError(s, "complete")
	}
	return Completed, nil
}

// Cancel transitions any non-terminal status to Cancelled.
func (s Status) Cancel() (Status, error) {
	if s.IsTerminal() || s.Validate() != nil {
		return Unknown, transitionError(s, "cancel")
	}
	return Cancelled, nil
}

// FailAssignment transitions a waiting order to AssignmentFailed when candidates run out.
func (s Status) FailAssignment() (Status, error) {
	if !s.IsWaitingForVendor() {
		return Unknown, transitionError(s, "fail assignment")
	}
	return AssignmentFailed, nil
}

func transitionError(s Status, action string) error {
	return errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%s is not a valid status to %s", s.String(), action),
	)
}
