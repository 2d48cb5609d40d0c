// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_dispatches_total",
			Help: "Total number of tool dispatches by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_dispatch_duration_seconds",
			Help: "Duration of tool dispatch in seconds",
		},
		[]string{"operation"},
	)

	FanoutBranchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_fanout_branches_total",
			Help: "Total number of fan-out branches by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ProviderRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_retries_total",
			Help: "Total number of upstream retry attempts by endpoint",
		},
		[]string{"endpoint"},
	)

	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of upstream requests by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss, bypass)",
		},
		[]string{"result"},
	)
)
