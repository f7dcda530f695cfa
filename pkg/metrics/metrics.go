package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus collectors for webhook delivery and shipment balancing.
var (
	DeliveryJobsQueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_jobs_queued_total",
			Help: "Total number of delivery jobs created per event",
		},
		[]string{"event"},
	)

	DeliveryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_delivery_attempts_total",
			Help: "Total number of webhook delivery attempts by classification",
		},
		[]string{"event", "classification"},
	)

	DeliveryAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_delivery_attempt_duration_seconds",
			Help:    "Duration of single webhook delivery attempts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"classification"},
	)

	DeliveryJobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_jobs_finished_total",
			Help: "Total number of delivery jobs that reached a terminal state",
		},
		[]string{"state"},
	)

	SubscriptionsDisabledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_subscriptions_disabled_total",
			Help: "Total number of subscriptions deactivated after exhausting retries",
		},
	)

	ShipmentsAssignedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_shipments_assigned_total",
			Help: "Total number of shipments assigned by the balancing engine per tier",
		},
		[]string{"tier"},
	)

	ShipmentsUnassignedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "balance_shipments_unassigned_total",
			Help: "Total number of shipments left pending because no tenant qualified",
		},
	)

	ShipmentsStarvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "balance_shipments_starved_total",
			Help: "Total number of starvation alerts raised for unassignable shipments",
		},
	)

	TenantsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "balance_tenants_skipped_total",
			Help: "Total number of tenants skipped because metrics could not be computed",
		},
	)

	RebalanceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "balance_rebalance_duration_seconds",
			Help:    "Duration of rebalancing cycles",
			Buckets: prometheus.DefBuckets,
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DeliveryJobsQueuedTotal,
			DeliveryAttemptsTotal,
			DeliveryAttemptDuration,
			DeliveryJobsFinishedTotal,
			SubscriptionsDisabledTotal,
			ShipmentsAssignedTotal,
			ShipmentsUnassignedTotal,
			ShipmentsStarvedTotal,
			TenantsSkippedTotal,
			RebalanceDuration,
			HTTPRequestsTotal,
		)
	})
}
