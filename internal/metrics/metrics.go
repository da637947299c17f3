// Package metrics exposes Prometheus metrics for the training loop.
//
// Counters are fed from the domain event dispatcher; generative provider
// latency is fed from the resilient provider's observe hook. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "etltrainer"

// Metrics holds the trainer collectors and the registry they live in
type Metrics struct {
	registry *prometheus.Registry

	// QuestionsServed counts questions by pattern and origin
	QuestionsServed *prometheus.CounterVec

	// Submissions counts validated submissions by pattern, reviewer and result
	Submissions *prometheus.CounterVec

	// RuleFindings counts rule violations by rule
	RuleFindings *prometheus.CounterVec

	// SessionsStarted counts new sessions by mode
	SessionsStarted *prometheus.CounterVec

	// MistakeRetries counts mistakes loaded for another try
	MistakeRetries prometheus.Counter

	// ProviderDuration measures generative calls by provider and status
	ProviderDuration *prometheus.HistogramVec

	// HTTPDuration measures daemon requests by route pattern and status code
	HTTPDuration *prometheus.HistogramVec
}

// New creates the trainer metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		QuestionsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_served_total",
			Help:      "Questions served by pattern and origin",
		}, []string{"pattern", "origin"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Validated submissions by pattern, reviewer and result",
		}, []string{"pattern", "reviewer", "correct"}),
		RuleFindings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_findings_total",
			Help:      "Rule violations reported by the rule-based validator",
		}, []string{"rule"}),
		SessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Training sessions started by mode",
		}, []string{"mode"}),
		MistakeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mistake_retries_total",
			Help:      "Past mistakes loaded for another attempt",
		}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Generative provider call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Daemon request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.QuestionsServed,
		m.Submissions,
		m.RuleFindings,
		m.SessionsStarted,
		m.MistakeRetries,
		m.ProviderDuration,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveProvider records one generative provider call
func (m *Metrics) ObserveProvider(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ProviderDuration.WithLabelValues(provider, status).Observe(elapsed.Seconds())
}

// ObserveHTTP records one daemon request. route is the mux pattern, never
// the raw path.
func (m *Metrics) ObserveHTTP(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// Record updates the counters for a training event
func (m *Metrics) Record(event domain.Event) {
	if m == nil {
		return
	}
	switch e := event.(type) {
	case domain.SessionStartedEvent:
		m.SessionsStarted.WithLabelValues(string(e.Mode)).Inc()
	case domain.QuestionServedEvent:
		m.QuestionsServed.WithLabelValues(string(e.PatternID), string(e.Origin)).Inc()
	case domain.AttemptRecordedEvent:
		m.Submissions.WithLabelValues(string(e.PatternID), e.Reviewer, strconv.FormatBool(e.IsCorrect)).Inc()
		for _, rule := range e.Findings {
			m.RuleFindings.WithLabelValues(string(rule)).Inc()
		}
	case domain.MistakeRetriedEvent:
		m.MistakeRetries.Inc()
	}
}

// EventHandler returns an event handler for the domain dispatcher
func (m *Metrics) EventHandler() domain.EventHandler {
	return m.Record
}
