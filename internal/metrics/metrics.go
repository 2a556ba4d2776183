// Package metrics exposes Prometheus metrics for the inference service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "retentioniq"

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(r *Recorder) {
		if ns != "" {
			r.namespace = ns
		}
	}
}

// WithRegistry registers metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Recorder) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithRuntimeCollectors adds the Go and process collectors.
func WithRuntimeCollectors() Option {
	return func(r *Recorder) { r.runtime = true }
}

// Recorder owns the metric vectors. A nil Recorder is valid and records
// nothing.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry
	runtime   bool

	predictions       *prometheus.CounterVec
	predictionErrors  *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	narrativeFailures prometheus.Counter
	chatTurns         *prometheus.CounterVec
	modelInfo         *prometheus.GaugeVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func New(opts ...Option) *Recorder {
	r := &Recorder{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}
	if r.runtime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(r.registry)

	r.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "predictions_total",
		Help:      "Scored employee records by risk band.",
	}, []string{"band"})

	r.predictionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "prediction_errors_total",
		Help:      "Failed predictions by pipeline stage.",
	}, []string{"stage"})

	r.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "pipeline_stage_duration_seconds",
		Help:      "Duration of each pipeline stage.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"stage"})

	r.narrativeFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "narrative_failures_total",
		Help:      "Narratives replaced by an error message.",
	})

	r.chatTurns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "chat_turns_total",
		Help:      "Insights chat turns by outcome.",
	}, []string{"outcome"})

	r.modelInfo = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "model_info",
		Help:      "Loaded classifier, always 1.",
	}, []string{"model_type", "family", "needs_scaling"})

	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	r.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) RecordPrediction(band string) {
	if r == nil {
		return
	}
	r.predictions.WithLabelValues(band).Inc()
}

func (r *Recorder) RecordPredictionError(stage string) {
	if r == nil {
		return
	}
	r.predictionErrors.WithLabelValues(stage).Inc()
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Recorder) RecordNarrativeFailure() {
	if r == nil {
		return
	}
	r.narrativeFailures.Inc()
}

func (r *Recorder) RecordChatTurn(failed bool) {
	if r == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	r.chatTurns.WithLabelValues(outcome).Inc()
}

func (r *Recorder) SetModel(modelType, family string, needsScaling bool) {
	if r == nil {
		return
	}
	scaling := "false"
	if needsScaling {
		scaling = "true"
	}
	r.modelInfo.Reset()
	r.modelInfo.WithLabelValues(modelType, family, scaling).Set(1)
}

func (r *Recorder) RecordHTTPRequest(route, method, code string, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, code).Inc()
	r.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
