package netgroup

import "github.com/prometheus/client_golang/prometheus"

var (
	hostLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "netgroup",
		Name:      "host_lookups_total",
		Help:      "Hostname lookups by result.",
	}, []string{"result"})

	mapFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "netgroup",
		Name:      "map_fetches_total",
		Help:      "Netgroup map fetches from the directory service by result.",
	}, []string{"result"})

	cyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "netgroup",
		Name:      "cycles_total",
		Help:      "Netgroup references skipped because they re-entered a group being expanded.",
	})

	missingGroupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "netgroup",
		Name:      "missing_groups_total",
		Help:      "Netgroup references not present in the map.",
	})
)

func init() {
	prometheus.MustRegister(
		hostLookupsTotal,
		mapFetchesTotal,
		cyclesTotal,
		missingGroupsTotal,
	)
}
