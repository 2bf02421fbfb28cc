package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 管道指标
var (
	EmbeddingsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_embeddings_generated_total",
		Help: "Total number of embeddings generated",
	})

	EmbeddingsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_embeddings_skipped_total",
		Help: "Total number of embedding runs skipped, by reason",
	}, []string{"reason"})

	EmbeddingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_embedding_failures_total",
		Help: "Total number of failed embedding attempts",
	})

	RecommendationsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_recommendations_computed_total",
		Help: "Total number of recommendation lists computed",
	})

	SimilaritySearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_similarity_searches_total",
		Help: "Total number of similarity searches, by provider",
	}, []string{"provider"})

	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_step_duration_seconds",
		Help:    "Duration of workflow steps",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	WorkflowsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_workflows_failed_total",
		Help: "Total number of workflows that exhausted their retry budget, by step",
	}, []string{"step"})

	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_invalidations_total",
		Help: "Total number of cache tag invalidations, by transition",
	}, []string{"transition"})

	CacheInvalidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_invalidation_failures_total",
		Help: "Total number of failed cache invalidations",
	})
)

// Handler 返回Prometheus指标的HTTP处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
