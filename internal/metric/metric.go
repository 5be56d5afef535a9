// Package metric holds the process-wide prometheus instrumentation for the
// captioning pipeline.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all pipeline-level metrics.
type Metrics struct {
	GeneratorCalls    *prometheus.CounterVec
	GeneratorFailures *prometheus.CounterVec
	TranslatorCalls   prometheus.Counter
	TranslatorErrors  prometheus.Counter
	TranslationHits   prometheus.Counter
	RetrievalInserts  prometheus.Counter
	RetrievalQueries  prometheus.Counter
	BatchReplacements prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a Metrics instance registered on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		GeneratorCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "captioner",
				Subsystem: "generator",
				Name:      "calls_total",
				Help:      "Total number of caption generation calls",
			},
			[]string{"provider"},
		),
		GeneratorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "captioner",
				Subsystem: "generator",
				Name:      "failures_total",
				Help:      "Total number of failed caption generation calls",
			},
			[]string{"provider"},
		),
		TranslatorCalls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "captioner",
				Subsystem: "translator",
				Name:      "calls_total",
				Help:      "Total number of translation calls sent to the model",
			},
		),
		TranslatorErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "captioner",
				Subsystem: "translator",
				Name:      "errors_total",
				Help:      "Total number of failed translation calls",
			},
		),
		TranslationHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "captioner",
				Subsystem: "translator",
				Name:      "cache_hits_total",
				Help:      "Total number of translations served from the per-caption cache",
			},
		),
		RetrievalInserts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "captioner",
				Subsystem: "retrieval",
				Name:      "inserts_total",
				Help:      "Total number of captions inserted into the similarity index",
			},
		),
		RetrievalQueries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "captioner",
				Subsystem: "retrieval",
				Name:      "queries_total",
				Help:      "Total number of similarity queries",
			},
		),
		BatchReplacements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "captioner",
				Subsystem: "session",
				Name:      "batch_replacements_total",
				Help:      "Total number of full batch replacements",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.GeneratorCalls,
		m.GeneratorFailures,
		m.TranslatorCalls,
		m.TranslatorErrors,
		m.TranslationHits,
		m.RetrievalInserts,
		m.RetrievalQueries,
		m.BatchReplacements,
	)

	return m
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
