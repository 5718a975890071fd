package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// Notification events published by the dispatch workflow.
const (
	EventOrderOffered          = "order.offered"
	EventOrderAssigned         = "order.assigned"
	EventOrderAssignmentFailed = "order.assignment_failed"
	EventOrderCancelled        = "order.cancelled"
	EventOrderStatusChanged    = "order.status_changed"
	EventOfferWon              = "offer.won"
	EventOfferCancelled        = "offer.cancelled"
)

// AdminChannel receives operational events such as assignment failures.
const AdminChannel = "admin"

// VendorChannel is the per-vendor room.
func VendorChannel(vendorID kernel.UUID) string {
	return "vendor:" + vendorID.String()
}

// OrderChannel is the customer room of an order.
func OrderChannel(orderID kernel.UUID) string {
	return "order:" + orderID.String()
}

// NotificationDispatcher delivers realtime events. Delivery is best-effort:
// callers log failures and never roll back business state because of them.
// Publish is called on the request path, so implementations wired into handlers
// must return without waiting on the transport (see notify.AsyncDispatcher).
type NotificationDispatcher interface {
	Publish(ctx context.Context, channel, event string, payload map[string]any) error
}
