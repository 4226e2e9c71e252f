// Package metrics defines the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Broadcast hub metrics
var (
	// HubSubscribers tracks currently connected live-update subscribers
	HubSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overlay_hub_subscribers",
			Help: "Number of currently connected overlay subscribers",
		},
	)

	// HubBroadcastsTotal counts state snapshots fanned out to subscribers
	HubBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_hub_broadcasts_total",
			Help: "Total overlay state broadcasts",
		},
	)

	// HubDroppedSubscribersTotal counts subscribers evicted because their
	// delivery channel was full or closed
	HubDroppedSubscribersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_hub_dropped_subscribers_total",
			Help: "Total subscribers dropped for slow or dead delivery channels",
		},
	)
)

// HTTP surface metrics
var (
	// OverlayReadsTotal counts snapshot reads; the read endpoint doubles as
	// the polling fallback, so it is counted rather than logged per hit
	OverlayReadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_reads_total",
			Help: "Total overlay snapshot reads",
		},
	)

	// OverlayWritesTotal counts write attempts by outcome
	OverlayWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_writes_total",
			Help: "Total overlay write attempts by status",
		},
		[]string{"status"},
	)

	// AuthRejectionsTotal counts rejected admin authentications by reason
	AuthRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_auth_rejections_total",
			Help: "Total rejected admin authentications by reason",
		},
		[]string{"reason"},
	)
)

// Relay metrics
var (
	// RelayMessagesTotal counts cross-instance relay messages by direction
	RelayMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_relay_messages_total",
			Help: "Total cross-instance relay messages by direction",
		},
		[]string{"direction"},
	)

	// RelayErrorsTotal counts relay publish and decode failures
	RelayErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_relay_errors_total",
			Help: "Total relay publish and decode failures",
		},
	)
)

// Write outcome labels for OverlayWritesTotal.
const (
	WriteStatusOK           = "ok"
	WriteStatusPersistError = "persist_error"
)

// Rejection reasons for AuthRejectionsTotal.
const (
	AuthReasonMissing       = "missing_credentials"
	AuthReasonWrong         = "wrong_credentials"
	AuthReasonNotConfigured = "not_configured"
)
