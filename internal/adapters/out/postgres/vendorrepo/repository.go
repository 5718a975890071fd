package vendorrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vendor"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormVendorRepository implements ports.VendorRepository using GORM.
type GormVendorRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormVendorRepository(db *gorm.DB, tracker aggregateTracker) *GormVendorRepository {
	return &GormVendorRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormVendorRepository) Add(ctx context.Context, aggregate *vendor.Vendor) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormVendorRepository) Update(ctx context.Context, aggregate *vendor.Vendor) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&VendorDTO{}).Where("id = ?", dto.ID).Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("vendor", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormVendorRepository) Get(ctx context.Context, id kernel.UUID) (*vendor.Vendor, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto VendorDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Raw()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("vendor", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// FindApprovedWithin is the bounding-box prefilter of the candidate lookup.
// Callers rank the result by exact distance.
func (r *GormVendorRepository) FindApprovedWithin(ctx context.Context, box kernel.BoundingBox) ([]*vendor.Vendor, error) {
	var dtos []VendorDTO
	err := r.db.WithContext(ctx).
		Where("status = ?", vendor.Approved.String()).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	vendors := make([]*vendor.Vendor, 0, len(dtos))
	for _, dto := range dtos {
		v, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}

	return vendors, nil
}
