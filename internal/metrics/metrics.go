// Package metrics holds the Prometheus collectors for the scanner.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage outcomes
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics bundles Prometheus collectors for the service.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	StageTotal       *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscanner_http_requests_total",
			Help: "HTTP requests answered, by handler and status code.",
		},
		[]string{"handler", "code"},
	)
	stages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscanner_stage_total",
			Help: "Pipeline stage runs by stage, reason and outcome.",
		},
		[]string{"stage", "outcome", "reason"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookscanner_pipeline_duration_seconds",
			Help:    "End-to-end pipeline latency per request.",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		},
	)

	registry.MustRegister(requests, stages, duration)

	return &Metrics{
		Registry:         registry,
		RequestsTotal:    requests,
		StageTotal:       stages,
		PipelineDuration: duration,
	}
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRequest counts one answered HTTP request.
func (m *Metrics) ObserveRequest(handler string, code int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(handler, strconv.Itoa(code)).Inc()
}

// ObserveStage counts one stage run. reason is empty on success.
func (m *Metrics) ObserveStage(stage, outcome, reason string) {
	if m == nil {
		return
	}
	m.StageTotal.WithLabelValues(stage, outcome, reason).Inc()
}

// ObservePipeline records a pipeline duration.
func (m *Metrics) ObservePipeline(d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDuration.Observe(d.Seconds())
}
