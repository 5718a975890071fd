package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vendor"
)

// VendorRepository defines the persistence contract for vendor aggregates.
type VendorRepository interface {
	Add(ctx context.Context, aggregate *vendor.Vendor) error

	Update(ctx context.Context, aggregate *vendor.Vendor) error

	// Get retrieves a vendor by identifier. Returns errs.ObjectNotFoundError when absent.
	Get(ctx context.Context, id kernel.UUID) (*vendor.Vendor, error)

	// FindApprovedWithin returns approved vendors whose location lies inside box.
	// The box is a coarse prefilter; callers still apply the exact radius.
	FindApprovedWithin(ctx context.Context, box kernel.BoundingBox) ([]*vendor.Vendor, error)
}
