package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetVendorOffersQueryIsNotConstructed = errors.New(
		"GetVendorOffersQuery must be created via NewGetVendorOffersQuery constructor",
	)
)

// GetVendorOffersQuery lists the offers a vendor can still answer.
//
// Example:
//
//	query, err := NewGetVendorOffersQuery(vendorID)
//	if err != nil {
//	    return err
//	}
//	offers, err := handler.Handle(ctx, query)
type GetVendorOffersQuery struct {
	vendorID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetVendorOffersQuery(vendorID kernel.UUID) (GetVendorOffersQuery, error) {
	if err := vendorID.Validate(); err != nil {
		return GetVendorOffersQuery{}, err
	}

	return GetVendorOffersQuery{
		vendorID: vendorID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetVendorOffersQuery) Validate() error {
	return q.guard.Validate(ErrGetVendorOffersQueryIsNotConstructed)
}

func (q GetVendorOffersQuery) VendorID() kernel.UUID {
	return q.vendorID
}

// GetVendorOffersQueryResponse is one open offer with the order it belongs to.
type GetVendorOffersQueryResponse struct {
	AssignmentID   kernel.UUID
	OrderID        kernel.UUID
	OrderDisplayID string
	OrderLocation  kernel.Location
	DistanceKm     float64
	Batch          int
	PushedAt       time.Time
	ExpiresAt      time.Time
}
