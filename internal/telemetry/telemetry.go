// Package telemetry provides Prometheus metrics and OpenTelemetry tracing for
// the complaint priority service.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "complaint-priority"
	namespace   = "complaint_priority"
)

// Training outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal   *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	PredictionErrors   *prometheus.CounterVec

	// Training metrics
	TrainingRuns     *prometheus.CounterVec
	TrainingDuration prometheus.Histogram
	TrainingAccuracy prometheus.Gauge
	VocabularySize   prometheus.Gauge
	ModelLoaded      prometheus.Gauge
}

// Provider wraps the tracer, the metrics and the registry they live on.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	Registry *prometheus.Registry
}

// NewProvider builds a provider on a fresh registry, so several providers
// can coexist in one process.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		Registry: reg,
	}
}

// Handler returns the Prometheus HTTP handler for /metrics.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{Registry: p.Registry})
}

func initMetrics(f promauto.Factory) *Metrics {
	m := &Metrics{}
	initPredictionMetrics(f, m)
	initTrainingMetrics(f, m)
	return m
}

func initPredictionMetrics(f promauto.Factory, m *Metrics) {
	m.PredictionsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total predictions by predicted priority",
	}, []string{"priority"})

	m.PredictionDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Time to score a single complaint",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	m.PredictionErrors = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prediction_errors_total",
		Help:      "Rejected or failed prediction requests by error kind",
	}, []string{"kind"})
}

func initTrainingMetrics(f promauto.Factory, m *Metrics) {
	m.TrainingRuns = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "training_runs_total",
		Help:      "Training runs by outcome",
	}, []string{"outcome"})

	m.TrainingDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "training_duration_seconds",
		Help:      "Wall time of a full training run",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	m.TrainingAccuracy = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "training_accuracy",
		Help:      "Held-out accuracy of the most recent successful training run",
	})

	m.VocabularySize = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "vocabulary_size",
		Help:      "Number of TF-IDF features in the active model",
	})

	m.ModelLoaded = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_loaded",
		Help:      "1 when a model is ready to serve predictions",
	})
}

// RecordPrediction records a successful prediction.
func (p *Provider) RecordPrediction(_ context.Context, priority string, duration time.Duration) {
	p.Metrics.PredictionsTotal.WithLabelValues(priority).Inc()
	p.Metrics.PredictionDuration.Observe(duration.Seconds())
}

// RecordPredictionError records a prediction rejected with the given error kind.
func (p *Provider) RecordPredictionError(_ context.Context, kind string) {
	p.Metrics.PredictionErrors.WithLabelValues(kind).Inc()
}

// RecordTraining records a completed training run. accuracy and vocabulary
// are only applied on success.
func (p *Provider) RecordTraining(_ context.Context, success bool, duration time.Duration, accuracy float64, vocabulary int) {
	p.Metrics.TrainingDuration.Observe(duration.Seconds())
	if !success {
		p.Metrics.TrainingRuns.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	p.Metrics.TrainingRuns.WithLabelValues(OutcomeSuccess).Inc()
	p.Metrics.TrainingAccuracy.Set(accuracy)
	p.Metrics.VocabularySize.Set(float64(vocabulary))
}

// SetModelLoaded flips the model_loaded gauge.
func (p *Provider) SetModelLoaded(loaded bool) {
	if loaded {
		p.Metrics.ModelLoaded.Set(1)
		return
	}
	p.Metrics.ModelLoaded.Set(0)
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}
