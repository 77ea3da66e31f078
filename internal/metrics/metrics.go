package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_quotes_total",
			Help: "Total number of quote requests by result",
		},
		[]string{"result"},
	)

	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_commits_total",
			Help: "Total number of commit requests by result",
		},
		[]string{"result"},
	)

	SeatsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_seats_reserved_total",
			Help: "Total number of seats committed to the inventory",
		},
	)

	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reconciliations_total",
			Help: "Total number of paid orders that could not be committed",
		},
		[]string{"reason"},
	)

	LedgerRepairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_ledger_repairs_total",
			Help: "Total number of bookings restored to the ledger from the inventory",
		},
	)

	PaymentGatewayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_payment_gateway_seconds",
			Help:    "Duration of payment order creation",
			Buckets: prometheus.DefBuckets,
		},
	)

	BroadcastDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_broadcast_delivered_total",
			Help: "Total number of seat snapshots delivered to subscribers",
		},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_broadcast_dropped_total",
			Help: "Total number of seat snapshots dropped for slow subscribers",
		},
	)

	BroadcastLocalFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_broadcast_local_fallbacks_total",
			Help: "Total number of seat snapshots delivered locally because Redis could not relay them",
		},
		[]string{"reason"},
	)

	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_outbox_published_total",
			Help: "Total number of outbox events relayed to the broker",
		},
		[]string{"event_type"},
	)

	OutboxPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_outbox_publish_failures_total",
			Help: "Total number of failed outbox relay attempts",
		},
	)
)
