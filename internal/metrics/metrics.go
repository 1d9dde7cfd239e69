package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsTotal counts accepted signal connections over process life.
	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livecast_connections_total",
			Help: "Total accepted signaling connections",
		},
	)

	// ConnectionsCurrent tracks currently open signal connections.
	ConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livecast_connections_current",
			Help: "Currently open signaling connections",
		},
	)

	// SignalEvents counts inbound signal events by type and outcome
	// (relayed, dropped, not_found).
	SignalEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livecast_signal_events_total",
			Help: "Inbound signal events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// Deliveries counts per-recipient fan-out deliveries by status.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livecast_deliveries_total",
			Help: "Per-recipient frame deliveries by status (sent/dropped)",
		},
		[]string{"status"},
	)
)
