package cluster

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "cluster",
		Name:      "requests_total",
		Help:      "Requests to the cluster management API by method and status code.",
	}, []string{"method", "code"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "cluster",
		Name:      "request_duration_seconds",
		Help:      "Cluster management API request duration in seconds.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(
		requestsTotal,
		requestDuration,
	)
}
