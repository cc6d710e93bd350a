// Package telemetry exposes prometheus counters for the rule apply
// workflow. Counters are package-level so library callers pay nothing when
// exposition is not wired up.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "findingsman_query_pages_total",
		Help: "Pages fetched from the remote finding store",
	})
	FindingsMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "findingsman_findings_matched_total",
		Help: "Findings that passed the offline re-match",
	})
	UpdatesSucceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "findingsman_updates_succeeded_total",
		Help: "Per-finding updates acknowledged by the remote service",
	})
	UpdatesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "findingsman_updates_failed_total",
		Help: "Per-finding updates that failed",
	})
)

func Init() {
	prometheus.MustRegister(PagesFetched, FindingsMatched, UpdatesSucceeded, UpdatesFailed)
}
