package batch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/halverson/marionette/internal/model"
)

// Cancel reasons originating inside the orchestrator.
const (
	reasonTimeout     = "timeout"
	reasonPeerLost    = "peerLost"
	reasonAllCanceled = "allAnimationsCanceled"
	reasonOtherCaller = "other"
)

var (
	batchesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marionette_batches_started_total",
			Help: "Total number of batches handed to a remote animator.",
		},
	)

	batchesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marionette_batches_finished_total",
			Help: "Total number of finalized batches by terminal status.",
		},
		[]string{"status"},
	)

	batchCancels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marionette_batch_cancels_total",
			Help: "Total number of batch cancellations by reason.",
		},
		[]string{"reason"},
	)

	batchesInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marionette_batches_inflight",
			Help: "Number of batches not yet finalized.",
		},
	)

	finishSignals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marionette_finish_signals_total",
			Help: "Total number of per-adapter finish signals delivered.",
		},
	)
)

func init() {
	prometheus.MustRegister(batchesStarted)
	prometheus.MustRegister(batchesFinished)
	prometheus.MustRegister(batchCancels)
	prometheus.MustRegister(batchesInflight)
	prometheus.MustRegister(finishSignals)

	// Pre-initialize label combinations so they appear in /metrics with
	// value 0 from startup, rather than only after first observation.
	batchesFinished.WithLabelValues(model.StatusFinished)
	batchesFinished.WithLabelValues(model.StatusCanceled)
	for _, reason := range []string{reasonTimeout, reasonPeerLost, reasonAllCanceled, reasonOtherCaller} {
		batchCancels.WithLabelValues(reason)
	}
}

// cancelReasonLabel maps free-form cancel reasons onto a bounded label set.
func cancelReasonLabel(reason string) string {
	switch reason {
	case reasonTimeout, reasonPeerLost, reasonAllCanceled:
		return reason
	default:
		return reasonOtherCaller
	}
}
