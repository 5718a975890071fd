package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
)

// AssignmentRepository is the append-only offer ledger. Rows are inserted and
// their status updated; they are never deleted.
type AssignmentRepository interface {
	// AddBatch inserts every row in a single statement. Either all rows are stored or none.
	AddBatch(ctx context.Context, rows []*assignment.Assignment) error

	// Update persists the response of a row that is currently PUSHED in storage.
	// Updating a row that already left PUSHED returns errs.InvalidStateError.
	Update(ctx context.Context, row *assignment.Assignment) error

	// GetPushed returns the open offer of orderID to vendorID.
	// Returns errs.ObjectNotFoundError when there is none.
	GetPushed(ctx context.Context, orderID, vendorID kernel.UUID) (*assignment.Assignment, error)

	// FindPushedByOrder returns every open offer of the order, any batch.
	FindPushedByOrder(ctx context.Context, orderID kernel.UUID) ([]*assignment.Assignment, error)

	// FindByOrder returns every row of the order ordered by push time, then batch.
	FindByOrder(ctx context.Context, orderID kernel.UUID) ([]*assignment.Assignment, error)

	// FindOrdersWithExpiredOffers returns up to limit distinct order ids that have a
	// PUSHED row whose deadline is before now.
	FindOrdersWithExpiredOffers(ctx context.Context, now time.Time, limit int) ([]kernel.UUID, error)
}
