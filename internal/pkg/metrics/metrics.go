// Package metrics holds the Prometheus collectors of the dispatch service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Accept outcomes used as the "outcome" label of AcceptOutcomesTotal.
const (
	OutcomeWon               = "won"
	OutcomeLostRace          = "lost_race"
	OutcomeExpired           = "expired"
	OutcomeLockUnavailable   = "lock_unavailable"
	OutcomeTransactionFailed = "transaction_failed"
)

var (
	BatchesPushedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_batches_pushed_total",
			Help: "Total number of offer batches pushed, first and fallback",
		},
	)

	OffersPushedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_offers_pushed_total",
			Help: "Total number of offers pushed to vendors",
		},
	)

	OffersExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_offers_expired_total",
			Help: "Total number of offers moved to EXPIRED",
		},
	)

	AssignmentFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_assignment_failures_total",
			Help: "Total number of orders that exhausted every candidate vendor",
		},
	)

	AcceptOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_accept_outcomes_total",
			Help: "Vendor accept attempts by outcome",
		},
		[]string{"outcome"},
	)

	LockAcquireDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_lock_acquire_duration_seconds",
			Help:    "Duration of distributed lock acquisition attempts",
			Buckets: prometheus.DefBuckets,
		},
	)

	NotificationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notification_failures_total",
			Help: "Notifications that could not be published, by event",
		},
		[]string{"event"},
	)

	NotificationsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_dropped_total",
			Help: "Notifications dropped because the publish queue was full, by event",
		},
		[]string{"event"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			BatchesPushedTotal,
			OffersPushedTotal,
			OffersExpiredTotal,
			AssignmentFailuresTotal,
			AcceptOutcomesTotal,
			LockAcquireDuration,
			NotificationFailuresTotal,
			NotificationsDroppedTotal,
			HTTPRequestsTotal,
			HTTPRequestDuration,
		)
	})
}
