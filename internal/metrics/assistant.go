package metrics

import "github.com/prometheus/client_golang/prometheus"

// Assistant turn metrics.
var (
	AssistantTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptmate",
			Name:      "assistant_turns_total",
			Help:      "Total number of assistant turns by terminal outcome",
		},
		[]string{"outcome"},
	)

	AssistantTurnRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scriptmate",
			Name:      "assistant_turn_rounds",
			Help:      "Model request rounds per assistant turn",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 40},
		},
	)

	AssistantTurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scriptmate",
			Name:      "assistant_turn_duration_seconds",
			Help:      "Assistant turn duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

var assistantMetricsRegistered bool

// RegisterAssistantMetrics registers assistant metrics. Must be called once from main.
func RegisterAssistantMetrics() {
	if assistantMetricsRegistered {
		return
	}
	prometheus.MustRegister(AssistantTurnsTotal)
	prometheus.MustRegister(AssistantTurnRounds)
	prometheus.MustRegister(AssistantTurnDuration)
	assistantMetricsRegistered = true
}
