package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_http_requests_total",
			Help: "Admin console requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_http_request_duration_seconds",
			Help:    "Admin console request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_api_requests_total",
			Help: "Calls made to the site API by method, endpoint and outcome.",
		},
		[]string{"method", "endpoint", "outcome"},
	)

	ControllerActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_controller_actions_total",
			Help: "Controller actions by entity, action and result.",
		},
		[]string{"entity", "action", "result"},
	)
)
