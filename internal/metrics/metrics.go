// Package metrics provides Prometheus metrics collection for the prediction
// service. It defines upload, pipeline and model metrics exposed via the
// Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages used as the "stage" label of PipelineFailures.
const (
	StageUpload   = "upload"
	StageParse    = "parse"
	StageSchema   = "schema"
	StageDerive   = "derive"
	StagePredict  = "predict"
	StagePersist  = "persist"
	StageInternal = "internal"
)

// Metrics holds all Prometheus metrics for the prediction service.
type Metrics struct {
	// Pipeline metrics
	Uploads            prometheus.Counter     // Total number of CSV uploads received
	PipelineFailures   *prometheus.CounterVec // Failed runs by stage
	RowsPredicted      prometheus.Counter     // Total number of passenger rows predicted
	SurvivorsPredicted prometheus.Counter     // Total number of rows predicted to survive
	PipelineDuration   prometheus.Histogram   // End-to-end duration of successful runs
	Downloads          prometheus.Counter     // Total number of snapshot downloads served

	// ML and prediction metrics
	MLPredictions         prometheus.Counter   // Total number of rows labelled by the model
	MLFailures            prometheus.Counter   // Total number of model prediction failures
	MLModelAge            prometheus.Gauge     // Age of the loaded model artifact in seconds
	MLLatency             prometheus.Histogram // Model call latency in seconds
	MLTimeouts            prometheus.Counter   // Total number of model call timeouts
	MLProbabilityFallback prometheus.Counter   // Runs that continued without probabilities
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Uploads: factory.NewCounter(prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total number of CSV uploads received",
		}),
		PipelineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_failures_total",
			Help: "Total number of failed prediction runs by stage",
		}, []string{"stage"}),
		RowsPredicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rows_predicted_total",
			Help: "Total number of passenger rows predicted",
		}),
		SurvivorsPredicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "survivors_predicted_total",
			Help: "Total number of passenger rows predicted to survive",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Duration of successful prediction runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		Downloads: factory.NewCounter(prometheus.CounterOpts{
			Name: "downloads_total",
			Help: "Total number of prediction snapshot downloads served",
		}),
		MLPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of rows labelled by the model",
		}),
		MLFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_failures_total",
			Help: "Total number of model prediction failures",
		}),
		MLModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ml_model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Model call latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		MLTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_timeouts_total",
			Help: "Total number of model call timeouts",
		}),
		MLProbabilityFallback: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_probability_fallback_total",
			Help: "Total number of runs that continued without probability estimates",
		}),
	}
}
