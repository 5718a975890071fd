package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetVendorOffersQueryHandler returns PUSHED offers of a vendor whose deadline has
// not passed, soonest deadline first. Offers of orders that already left the
// assigned status are skipped.
type GetVendorOffersQueryHandler struct {
	db    *gorm.DB
	clock kernel.Clock
}

func NewGetVendorOffersQueryHandler(db *gorm.DB, clock kernel.Clock) GetVendorOffersQueryHandler {
	return GetVendorOffersQueryHandler{db: db, clock: clock}
}

func (h GetVendorOffersQueryHandler) Handle(
	ctx context.Context,
	query GetVendorOffersQuery,
) ([]GetVendorOffersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	offers := make([]GetVendorOffersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			a.id,
			o.id,
			o.display_id,
			o.latitude,
			o.longitude,
			COALESCE((a.metadata->>'distanceKm')::float8, 0),
			COALESCE((a.metadata->>'batch')::int, 0),
			a.pushed_at,
			a.expires_at
		FROM assignments a
		JOIN orders o ON o.id = a.order_id
		WHERE a.vendor_id = ?
			AND a.status = 'PUSHED'
			AND a.expires_at >= ?
			AND o.status = 'assigned'
		ORDER BY a.expires_at, a.id
	`, query.VendorID().Raw(), h.clock.Now().UTC()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resp                GetVendorOffersQueryResponse
			assignmentID, id    uuid.UUID
			latitude, longitude float64
			pushedAt, expiresAt time.Time
		)

		err = rows.Scan(
			&assignmentID,
			&id,
			&resp.OrderDisplayID,
			&latitude,
			&longitude,
			&resp.DistanceKm,
			&resp.Batch,
			&pushedAt,
			&expiresAt,
		)
		if err != nil {
			return nil, err
		}

		if resp.AssignmentID, err = kernel.UUIDFromBytes(assignmentID[:]); err != nil {
			return nil, err
		}
		if resp.OrderID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if resp.OrderLocation, err = kernel.NewLocation(latitude, longitude); err != nil {
			return nil, err
		}
		resp.PushedAt = pushedAt.UTC()
		resp.ExpiresAt = expiresAt.UTC()

		offers = append(offers, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return offers, nil
}
