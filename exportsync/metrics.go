package exportsync

import "github.com/prometheus/client_golang/prometheus"

var (
	exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "sync",
		Name:      "exports_total",
		Help:      "Processed exports by outcome.",
	}, []string{"status"})

	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Sync runs by result.",
	}, []string{"result"})

	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "sync",
		Name:      "run_duration_seconds",
		Help:      "Duration of a full sync run in seconds.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	restrictionHosts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "sync",
		Name:      "restriction_addresses",
		Help:      "Number of addresses computed for an export's host restriction list.",
	}, []string{"export"})

	lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last sync run that completed without a fatal error.",
	})
)

func init() {
	prometheus.MustRegister(
		exportsTotal,
		runsTotal,
		runDuration,
		restrictionHosts,
		lastSuccess,
	)
}
