// Package metrics counts processed files, extracted transactions and
// rejected rows on a private Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"golang-statement-normalizer/internal/models"
)

const namespace = "normalizer"

// Status labels for FilesProcessed
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the collectors. All methods are safe for concurrent use
// and a nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	filesProcessed        *prometheus.CounterVec
	transactionsExtracted *prometheus.CounterVec
	rowsRejected          *prometheus.CounterVec
	extractionDuration    *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Statement files processed, by format and status.",
		}, []string{"format", "status"}),
		transactionsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_extracted_total",
			Help:      "Transactions accepted by the validation gate, by format and strategy.",
		}, []string{"format", "strategy"}),
		rowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Candidate rows or lines rejected, by format.",
		}, []string{"format"}),
		extractionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent extracting one file, by format.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"format"}),
	}

	m.registry.MustRegister(m.filesProcessed, m.transactionsExtracted, m.rowsRejected, m.extractionDuration)
	return m
}

// Registry exposes the private registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveOutcome records a successful extraction
func (m *Metrics) ObserveOutcome(outcome *models.ExtractionOutcome) {
	if m == nil || outcome == nil {
		return
	}
	format := outcome.Diagnostics.Format

	m.filesProcessed.WithLabelValues(format, StatusSuccess).Inc()
	for strategy, n := range outcome.Diagnostics.StrategyCounts() {
		m.transactionsExtracted.WithLabelValues(format, strategy).Add(float64(n))
	}
	if rejected := outcome.Diagnostics.Rejected(); rejected > 0 {
		m.rowsRejected.WithLabelValues(format).Add(float64(rejected))
	}
	m.extractionDuration.WithLabelValues(format).Observe(outcome.Diagnostics.Duration.Seconds())
}

// ObserveFailure records a file that produced an error
func (m *Metrics) ObserveFailure(format string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.filesProcessed.WithLabelValues(format, StatusFailure).Inc()
	m.extractionDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry in the Prometheus text format, for
// the node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
