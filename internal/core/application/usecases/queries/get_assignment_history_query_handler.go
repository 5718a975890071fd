package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAssignmentHistoryQueryHandler reads the ledger of an order in push order.
// An order without rows yields an empty slice; an unknown order is NOT_FOUND.
type GetAssignmentHistoryQueryHandler struct {
	db *gorm.DB
}

func NewGetAssignmentHistoryQueryHandler(db *gorm.DB) GetAssignmentHistoryQueryHandler {
	return GetAssignmentHistoryQueryHandler{db: db}
}

func (h GetAssignmentHistoryQueryHandler) Handle(
	ctx context.Context,
	query GetAssignmentHistoryQuery,
) ([]GetAssignmentHistoryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var exists bool
	err := h.db.WithContext(ctx).
		Raw(`SELECT EXISTS (SELECT 1 FROM orders WHERE id = ?)`, query.OrderID().Raw()).
		Scan(&exists).Error
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.NewObjectNotFoundError("orderID", query.OrderID())
	}

	history := make([]GetAssignmentHistoryQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			vendor_id,
			status,
			COALESCE((metadata->>'batch')::int, 0),
			COALESCE((metadata->>'distanceKm')::float8, 0),
			COALESCE(metadata->>'rejectionReason', ''),
			COALESCE((metadata->>'forceAssigned')::boolean, false),
			pushed_at,
			responded_at,
			expires_at
		FROM assignments
		WHERE order_id = ?
		ORDER BY pushed_at, (metadata->>'batch')::int, id
	`, query.OrderID().Raw()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resp         GetAssignmentHistoryQueryResponse
			id, vendorID uuid.UUID
			pushedAt     time.Time
			respondedAt  *time.Time
			expiresAt    time.Time
		)

		err = rows.Scan(
			&id,
			&vendorID,
			&resp.Status,
			&resp.Batch,
			&resp.DistanceKm,
			&resp.RejectionReason,
			&resp.ForceAssigned,
			&pushedAt,
			&respondedAt,
			&expiresAt,
		)
		if err != nil {
			return nil, err
		}

		if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if resp.VendorID, err = kernel.UUIDFromBytes(vendorID[:]); err != nil {
			return nil, err
		}
		resp.PushedAt = pushedAt.UTC()
		resp.ExpiresAt = expiresAt.UTC()
		if respondedAt != nil {
			t := respondedAt.UTC()
			resp.RespondedAt = &t
		}

		history = append(history, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}
