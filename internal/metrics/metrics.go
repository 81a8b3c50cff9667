// Package metrics exposes Prometheus counters for metadata lookups and verdicts.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "depmeta"

// Lookup results.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// OutcomeIgnored labels records that were fetched but did not apply.
const OutcomeIgnored = "ignored"

type Metrics struct {
	registry        *prometheus.Registry
	lookups         *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates metrics registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_lookups_total",
			Help:      "Metadata record lookups by result.",
		}, []string{"result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Evaluated metadata records by severity.",
		}, []string{"severity"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_request_duration_seconds",
			Help:      "Duration of repository round trips.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"repository", "operation"}),
	}
	m.registry.MustRegister(m.lookups, m.outcomes, m.requestDuration)
	return m
}

// Registry returns the registry holding every depmeta collector.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordLookup(result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordOutcome(severity string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(severity).Inc()
}

func (m *Metrics) ObserveRequest(repository, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(repository, operation).Observe(d.Seconds())
}

// WriteFile writes all metrics in the text exposition format, for node_exporter's textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
