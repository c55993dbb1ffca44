package surface

import "github.com/prometheus/client_golang/prometheus"

var (
	liveHandles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marionette_surface_live_handles",
			Help: "Number of surface handles currently under remote control.",
		},
	)

	handlesReturned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marionette_surface_handles_returned_total",
			Help: "Total number of surface handles returned to local ownership.",
		},
	)

	transactionsCommitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marionette_surface_transactions_total",
			Help: "Total number of committed surface transactions.",
		},
	)
)

func init() {
	prometheus.MustRegister(liveHandles)
	prometheus.MustRegister(handlesReturned)
	prometheus.MustRegister(transactionsCommitted)
}
