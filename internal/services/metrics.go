package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Horizon sweep metrics, exported on /metrics by the API server and the
// worker. Per-origin failures never abort a sweep, so the failure counter is
// the only place short of the logs where they surface.
var (
	sweepOriginsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_horizon_origins_processed_total",
		Help: "Fixed origins examined by the horizon maintenance sweep.",
	})

	sweepOccurrencesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_horizon_occurrences_created_total",
		Help: "Occurrences created by the horizon maintenance sweep.",
	})

	sweepOriginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_horizon_origin_failures_total",
		Help: "Origins whose materialization failed and was skipped for the sweep.",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "financas_horizon_sweep_duration_seconds",
		Help:    "Wall time of a full horizon maintenance sweep.",
		Buckets: prometheus.DefBuckets,
	})
)
