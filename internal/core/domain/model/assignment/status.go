package assignment

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status is the state of one offer in the ledger. PUSHED is the only non-terminal state.
//
//	PUSHED ──┬──> ACCEPTED
//	         ├──> REJECTED
//	         └──> EXPIRED
type Status int

const (
	Unknown Status = iota
	Pushed
	Accepted
	Rejected
	Expired
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:  "UNKNOWN",
		Pushed:   "PUSHED",
		Accepted: "ACCEPTED",
		Rejected: "REJECTED",
		Expired:  "EXPIRED",
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

func (s Status) Validate() error {
	if s <= Unknown || s > Expired {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// respond validates that the offer is still open and returns target.
func (s Status) respond(target Status) (Status, error) {
	if s != Pushed {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to move to %s", s.String(), target.String()),
		)
	}
	return target, nil
}
