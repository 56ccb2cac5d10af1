// Package metrics exposes pipeline counters through a Prometheus registry.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// guard metric calls.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dcpr"

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	chapters   prometheus.Counter
	sections   prometheus.Counter
	spans      *prometheus.CounterVec
	rules      *prometheus.CounterVec
	duplicates prometheus.Counter
	chunks     *prometheus.CounterVec
	validation *prometheus.CounterVec
	records    *prometheus.CounterVec

	llmCalls   *prometheus.CounterVec
	llmTokens  *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec
	runSeconds prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chapters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chapters_total",
			Help:      "Chapters detected by the segmenter.",
		}),
		sections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sections_total",
			Help:      "Sections detected within chapters.",
		}),
		spans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spans_total",
			Help:      "Extracted spans by noise class.",
		}, []string{"class"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_extracted_total",
			Help:      "Rule candidates produced, by strategy.",
		}, []string{"strategy"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Rules dropped by deduplication.",
		}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_chunks_total",
			Help:      "LLM extraction chunks by status.",
		}, []string{"status"}),
		validation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_issues_total",
			Help:      "Validation findings by severity.",
		}, []string{"severity"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validated_records_total",
			Help:      "Validated records by outcome.",
		}, []string{"outcome"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "LLM calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "LLM tokens by provider and kind.",
		}, []string{"provider", "kind"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_seconds",
			Help:      "LLM call latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_seconds",
			Help:      "Pipeline run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.chapters, m.sections, m.spans, m.rules, m.duplicates,
		m.chunks, m.validation, m.records,
		m.llmCalls, m.llmTokens, m.llmLatency, m.runSeconds,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// AddStructure counts chapters and sections found by one strategy.
func (m *Metrics) AddStructure(chapters, sections int) {
	if m == nil {
		return
	}
	m.chapters.Add(float64(chapters))
	m.sections.Add(float64(sections))
}

// AddSpans counts classified spans.
func (m *Metrics) AddSpans(class string, n int) {
	if m == nil {
		return
	}
	m.spans.WithLabelValues(class).Add(float64(n))
}

// AddRules counts rules produced by a strategy.
func (m *Metrics) AddRules(strategy string, n int) {
	if m == nil {
		return
	}
	m.rules.WithLabelValues(strategy).Add(float64(n))
}

// AddDuplicates counts rules dropped by deduplication.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil {
		return
	}
	m.duplicates.Add(float64(n))
}

// ObserveChunk counts one LLM chunk outcome.
func (m *Metrics) ObserveChunk(status string) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(status).Inc()
}

// ObserveValidation counts a validation report.
func (m *Metrics) ObserveValidation(passed, failed, errors, warnings int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues("passed").Add(float64(passed))
	m.records.WithLabelValues("failed").Add(float64(failed))
	m.validation.WithLabelValues("error").Add(float64(errors))
	m.validation.WithLabelValues("warning").Add(float64(warnings))
}

// ObserveCall counts one LLM call.
func (m *Metrics) ObserveCall(provider string, success bool, promptTokens, completionTokens int, latency time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.llmCalls.WithLabelValues(provider, outcome).Inc()
	m.llmTokens.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	m.llmTokens.WithLabelValues(provider, "completion").Add(float64(completionTokens))
	m.llmLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// ObserveRun records a run duration.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.runSeconds.Observe(d.Seconds())
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
