package metrics

import "github.com/prometheus/client_golang/prometheus"

// Doc tool Prometheus metrics, one observation set per tool invocation.
var (
	DocToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptmate",
			Name:      "doctool_invocations_total",
			Help:      "Total number of doc search tool invocations",
		},
		[]string{"status"},
	)

	DocToolDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scriptmate",
			Name:      "doctool_duration_seconds",
			Help:      "Doc search tool execution duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	DocToolResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scriptmate",
			Name:      "doctool_results",
			Help:      "Result count per doc search tool invocation",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)
)

var toolMetricsRegistered bool

// RegisterDocToolMetrics registers doc tool metrics. Must be called once from main.
func RegisterDocToolMetrics() {
	if toolMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocToolInvocationsTotal)
	prometheus.MustRegister(DocToolDuration)
	prometheus.MustRegister(DocToolResults)
	toolMetricsRegistered = true
}
