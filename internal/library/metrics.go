package library

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matsen/papershelf/internal/validate"
)

// Metrics counts library activity on a private registry so that a CLI run
// can flush them to a node exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	// RecordsMigrated counts records rewritten to the current schema.
	RecordsMigrated prometheus.Counter

	// MigrationFailures counts records that could not be migrated.
	MigrationFailures prometheus.Counter

	// ValidationIssues counts validation issues, labeled by severity.
	ValidationIssues *prometheus.CounterVec
}

// NewMetrics registers the library metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RecordsMigrated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "shelf",
			Name:      "records_migrated_total",
			Help:      "Records rewritten to the current schema version.",
		}),
		MigrationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "shelf",
			Name:      "migration_failures_total",
			Help:      "Records left unchanged because migration failed.",
		}),
		ValidationIssues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shelf",
			Name:      "validation_issues_total",
			Help:      "Validation issues found, by severity.",
		}, []string{"severity"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the textfile collector format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observeValidation(result validate.Result) {
	if m == nil {
		return
	}
	if n := len(result.Errors); n > 0 {
		m.ValidationIssues.WithLabelValues(string(validate.SeverityError)).Add(float64(n))
	}
	if n := len(result.Warnings); n > 0 {
		m.ValidationIssues.WithLabelValues(string(validate.SeverityWarning)).Add(float64(n))
	}
}

func (m *Metrics) observeMigration(migrated, failed int) {
	if m == nil {
		return
	}
	m.RecordsMigrated.Add(float64(migrated))
	m.MigrationFailures.Add(float64(failed))
}
