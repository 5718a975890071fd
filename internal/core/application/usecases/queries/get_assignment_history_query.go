package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetAssignmentHistoryQueryIsNotConstructed = errors.New(
		"GetAssignmentHistoryQuery must be created via NewGetAssignmentHistoryQuery constructor",
	)
)

// GetAssignmentHistoryQuery returns the full offer ledger of one order.
//
// Example:
//
//	query, err := NewGetAssignmentHistoryQuery(orderID)
//	if err != nil {
//	    return err
//	}
//	rows, err := handler.Handle(ctx, query)
type GetAssignmentHistoryQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetAssignmentHistoryQuery(orderID kernel.UUID) (GetAssignmentHistoryQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetAssignmentHistoryQuery{}, err
	}

	return GetAssignmentHistoryQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (q GetAssignmentHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetAssignmentHistoryQueryIsNotConstructed)
}

func (q GetAssignmentHistoryQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetAssignmentHistoryQueryResponse is one ledger row.
type GetAssignmentHistoryQueryResponse struct {
	ID              kernel.UUID
	VendorID        kernel.UUID
	Status          string
	Batch           int
	DistanceKm      float64
	RejectionReason string
	ForceAssigned   bool
	PushedAt        time.Time
	RespondedAt     *time.Time
	ExpiresAt       time.Time
}
