// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypost_http_requests_total",
			Help: "HTTP requests by method and status code.",
		},
		[]string{"method", "status"})

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "waypost_sessions_active",
			Help: "Admin sessions currently live (approximate; janitor-corrected).",
		})

	SubmissionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "waypost_submissions_total",
			Help: "Cumulative public submissions accepted into the pending queue.",
		})

	ApprovalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "waypost_approvals_total",
			Help: "Cumulative pending entries promoted into the catalog.",
		})

	RejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "waypost_rejections_total",
			Help: "Cumulative pending entries rejected.",
		})

	FaviconProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypost_favicon_probes_total",
			Help: "Favicon discovery probes by outcome (hit, miss, error).",
		},
		[]string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		SessionsActive,
		SubmissionsTotal,
		ApprovalsTotal,
		RejectionsTotal,
		FaviconProbesTotal,
	)
}
