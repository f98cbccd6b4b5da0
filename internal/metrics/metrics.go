// Package metrics declares the Prometheus collectors of the CRM server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmdesk_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	PurgedCustomersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crmdesk_purged_customers_total",
			Help: "Soft-deleted customers removed by the cleaner",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PurgedCustomersTotal,
	)
}
