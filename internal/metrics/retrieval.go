package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	SubqueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_subquery_duration_seconds",
			Help:      "Passage store sub-query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"}, // "semantic" / "lexical"
	)

	SubqueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_subquery_errors_total",
			Help:      "Passage store sub-queries that failed and were degraded to no signal",
		},
		[]string{"kind"},
	)

	RetrievalOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_outcomes_total",
			Help:      "Retrieval calls by outcome",
		},
		[]string{"outcome"}, // "ok" / "no_context" / "clarify"
	)

	NormalizerCorrectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalizer_corrections_total",
			Help:      "Query terms rewritten to a canonical vocabulary term",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval pipeline metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(SubqueryDuration)
	prometheus.MustRegister(SubqueryErrorsTotal)
	prometheus.MustRegister(RetrievalOutcomesTotal)
	prometheus.MustRegister(NormalizerCorrectionsTotal)
	retrievalMetricsRegistered = true
}
