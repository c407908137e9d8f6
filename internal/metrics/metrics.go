package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "gymrag"

var (
	SemcacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semcache_operations_total",
			Help:      "Semantic cache operations by outcome",
		},
		[]string{"operation", "result"}, // lookup|store|init, hit|miss|stored|rejected|error|ok
	)

	RetrievalOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_outcomes_total",
			Help:      "Hybrid retrieval outcomes by surviving sources",
		},
		[]string{"outcome"}, // both|dense_only|sparse_only|failed
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Per-source nearest-neighbour query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"source"},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Answered questions by provenance",
		},
		[]string{"provenance"},
	)

	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "LLM generation duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	PersistenceTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_tasks_total",
			Help:      "Background persistence tasks by outcome",
		},
		[]string{"task", "status"},
	)
)

func init() {
	prometheus.MustRegister(SemcacheOperationsTotal)
	prometheus.MustRegister(RetrievalOutcomesTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(PersistenceTasksTotal)
}
