package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LeadsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_submitted_total",
			Help: "Lead submissions by outcome (created, invalid, storage_error)",
		},
		[]string{"result"},
	)

	LeadStatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_status_updates_total",
			Help: "Interest status updates by resulting status or failure",
		},
		[]string{"status"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_notifications_total",
			Help: "Lead notification attempts by channel, recipient and status",
		},
		[]string{"channel", "recipient", "status"},
	)

	NotificationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lead_notifications_in_flight",
			Help: "Detached notification dispatches not yet finished",
		},
	)

	AuthRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Rejected credentials by gate and reason",
		},
		[]string{"gate", "reason"},
	)

	PhoneExportSourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phone_export_source_failures_total",
			Help: "Phone export source collections that could not be read",
		},
		[]string{"collection"},
	)

	PhoneExportCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phone_export_cache_total",
			Help: "Phone export cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_store_operation_duration_seconds",
			Help:    "Lead store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
