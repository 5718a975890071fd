package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by identifier. Returns errs.ObjectNotFoundError when absent.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate retrieves an order and locks its row until the surrounding
	// transaction ends. Every write path that inspects offers takes this lock first,
	// so concurrent accept, reject, expiry and fallback on the same order are serialised.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// FindStrandedAssigned returns up to limit orders in assigned status that have no
	// PUSHED offer left. Such orders are recovered by the expiry sweep.
	FindStrandedAssigned(ctx context.Context, limit int) ([]kernel.UUID, error)
}
