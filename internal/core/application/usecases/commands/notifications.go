package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/metrics"

	"go.uber.org/zap"
)

// notifier publishes events best-effort. Failures are logged at warn and counted,
// never returned to the caller.
type notifier struct {
	dispatcher ports.NotificationDispatcher
	logger     *zap.Logger
}

func newNotifier(dispatcher ports.NotificationDispatcher, logger *zap.Logger) notifier {
	return notifier{dispatcher: dispatcher, logger: logger}
}

func (n notifier) publish(ctx context.Context, channel, event string, payload map[string]any) {
	if n.dispatcher == nil {
		return
	}
	if err := n.dispatcher.Publish(ctx, channel, event, payload); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(event).Inc()
		n.logger.Warn("notification failed",
			zap.String("channel", channel),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (n notifier) offersPushed(ctx context.Context, o *order.Order, batch Batch) {
	for _, c := range batch.Candidates {
		n.publish(ctx, ports.VendorChannel(c.VendorID), ports.EventOrderOffered, map[string]any{
			"orderId":    o.ID().String(),
			"displayId":  o.DisplayID(),
			"vendorId":   c.VendorID.String(),
			"distanceKm": c.DistanceKm,
			"batch":      batch.Number,
			"expiresAt":  batch.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}

func (n notifier) orderAssigned(ctx context.Context, o *order.Order, winner kernel.UUID, losers []*assignment.Assignment, forced bool) {
	payload := map[string]any{
		"orderId":       o.ID().String(),
		"displayId":     o.DisplayID(),
		"vendorId":      winner.String(),
		"status":        o.Status().String(),
		"forceAssigned": forced,
	}
	n.publish(ctx, ports.OrderChannel(o.ID()), ports.EventOrderAssigned, payload)
	n.publish(ctx, ports.VendorChannel(winner), ports.EventOfferWon, payload)
	if forced {
		n.publish(ctx, ports.AdminChannel, ports.EventOrderAssigned, payload)
	}
	n.offersCancelled(ctx, o, losers)
}

func (n notifier) offersCancelled(ctx context.Context, o *order.Order, rows []*assignment.Assignment) {
	for _, row := range rows {
		n.publish(ctx, ports.VendorChannel(row.VendorID()), ports.EventOfferCancelled, map[string]any{
			"orderId":   o.ID().String(),
			"displayId": o.DisplayID(),
			"reason":    row.Metadata().RejectionReason,
		})
	}
}

func (n notifier) assignmentFailed(ctx context.Context, o *order.Order, tried int) {
	payload := map[string]any{
		"orderId":      o.ID().String(),
		"displayId":    o.DisplayID(),
		"status":       o.Status().String(),
		"triedVendors": tried,
	}
	n.publish(ctx, ports.OrderChannel(o.ID()), ports.EventOrderAssignmentFailed, payload)
	n.publish(ctx, ports.AdminChannel, ports.EventOrderAssignmentFailed, payload)
}

func (n notifier) orderCancelled(ctx context.Context, o *order.Order, reason string, rows []*assignment.Assignment) {
	n.publish(ctx, ports.OrderChannel(o.ID()), ports.EventOrderCancelled, map[string]any{
		"orderId":   o.ID().String(),
		"displayId": o.DisplayID(),
		"reason":    reason,
	})
	n.offersCancelled(ctx, o, rows)
}

func (n notifier) statusChanged(ctx context.Context, o *order.Order) {
	n.publish(ctx, ports.OrderChannel(o.ID()), ports.EventOrderStatusChanged, map[string]any{
		"orderId":   o.ID().String(),
		"displayId": o.DisplayID(),
		"status":    o.Status().String(),
	})
}
