// Package orderrepo persists the order aggregate with GORM.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row shape of the orders table.
type OrderDTO struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey"`
	DisplayID        string      `gorm:"column:display_id"`
	Location         LocationDTO `gorm:"embedded"`
	Status           string
	AssignedVendorID *uuid.UUID `gorm:"type:uuid;column:assigned_vendor_id"`
	AssignedAt       *time.Time
	AcceptedAt       *time.Time
}

func (OrderDTO) TableName() string {
	return "orders"
}

// LocationDTO is the embedded delivery location.
type LocationDTO struct {
	Latitude  float64 `gorm:"column:latitude"`
	Longitude float64 `gorm:"column:longitude"`
}

func fromDomain(o *order.Order) OrderDTO {
	var vendorID *uuid.UUID
	if id := o.AssignedVendor(); id != nil {
		raw := id.Raw()
		vendorID = &raw
	}

	return OrderDTO{
		ID:        o.ID().Raw(),
		DisplayID: o.DisplayID(),
		Location: LocationDTO{
			Latitude:  o.Location().Latitude(),
			Longitude: o.Location().Longitude(),
		},
		Status:           o.Status().String(),
		AssignedVendorID: vendorID,
		AssignedAt:       utcOrNil(o.AssignedAt()),
		AcceptedAt:       utcOrNil(o.AcceptedAt()),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var vendorID *kernel.UUID
	if dto.AssignedVendorID != nil {
		vID, vendorErr := kernel.UUIDFromBytes(dto.AssignedVendorID[:])
		if vendorErr != nil {
			return nil, vendorErr
		}
		vendorID = &vID
	}

	loc, err := kernel.NewLocation(dto.Location.Latitude, dto.Location.Longitude)
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		id, dto.DisplayID, loc, status, vendorID,
		utcOrNil(dto.AssignedAt), utcOrNil(dto.AcceptedAt),
	)
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
