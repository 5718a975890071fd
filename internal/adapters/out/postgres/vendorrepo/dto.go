// Package vendorrepo persists the dispatch projection of vendors with GORM.
package vendorrepo

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vendor"

	"github.com/google/uuid"
)

// VendorDTO is the row shape of the vendors table.
type VendorDTO struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID   `gorm:"type:uuid"`
	Name      string
	Location  LocationDTO `gorm:"embedded"`
	Status    string
}

func (VendorDTO) TableName() string {
	return "vendors"
}

// LocationDTO is the embedded vendor position.
type LocationDTO struct {
	Latitude  float64 `gorm:"column:latitude"`
	Longitude float64 `gorm:"column:longitude"`
}

func fromDomain(v *vendor.Vendor) VendorDTO {
	return VendorDTO{
		ID:        v.ID().Raw(),
		AccountID: v.AccountID().Raw(),
		Name:      v.Name(),
		Location: LocationDTO{
			Latitude:  v.Location().Latitude(),
			Longitude: v.Location().Longitude(),
		},
		Status: v.Status().String(),
	}
}

func toDomain(dto VendorDTO) (*vendor.Vendor, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	accountID, err := kernel.UUIDFromBytes(dto.AccountID[:])
	if err != nil {
		return nil, err
	}

	loc, err := kernel.NewLocation(dto.Location.Latitude, dto.Location.Longitude)
	if err != nil {
		return nil, err
	}

	status, err := vendor.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return vendor.RestoreVendor(id, accountID, dto.Name, loc, status)
}
