package migrate

import (
	"go.uber.org/zap"

	"github.com/matsen/papershelf/internal/paper"
)

// MixedVersions is reported as Status.From when the collection marker is
// current but individual records are not.
const MixedVersions = "mixed"

// Status describes whether a stored collection needs migrating.
type Status struct {
	Needed bool   `json:"needed"`
	From   string `json:"from"`
	To     string `json:"to"`
	Count  int    `json:"count"`
}

// MigrateCollection migrates every record, keeping input order and length.
// A record that fails is passed through unchanged at its index and reported;
// one bad record never stops the rest.
func (m *Migrator) MigrateCollection(records []any) ([]any, Report) {
	out := make([]any, len(records))
	report := Report{
		Total:    len(records),
		Failures: []Failure{},
		Warnings: []Diagnostic{},
	}

	for i, raw := range records {
		migrated, changed, diags, err := m.migrate(raw, i)
		if err != nil {
			out[i] = raw
			report.Failed++
			report.Failures = append(report.Failures, Failure{Index: i, Err: err, Cause: err.Error()})
			m.emit(Diagnostic{
				Level:   LevelError,
				Index:   i,
				Message: "migration failed, record kept unchanged",
				Err:     err,
			})
			continue
		}

		out[i] = migrated
		if changed {
			report.Migrated++
		} else {
			report.Current++
		}
		for _, d := range diags {
			report.Warnings = append(report.Warnings, d)
			m.emit(d)
		}
	}

	m.logger.Debug("collection migrated",
		zap.Int("total", report.Total),
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", report.Failed),
		zap.String("version", m.version),
	)

	return out, report
}

// MigrateAny migrates v if it is a sequence of records. Anything else yields
// an empty sequence.
func (m *Migrator) MigrateAny(v any) ([]any, Report) {
	switch list := v.(type) {
	case []any:
		return m.MigrateCollection(list)
	case []paper.Record:
		generic := make([]any, len(list))
		for i, r := range list {
			generic[i] = r
		}
		return m.MigrateCollection(generic)
	case []map[string]any:
		generic := make([]any, len(list))
		for i, r := range list {
			generic[i] = r
		}
		return m.MigrateCollection(generic)
	default:
		return m.MigrateCollection(nil)
	}
}

// CheckMigrationNeeded compares the stored collection version and every
// record's version against the target. An empty storedVersion is the legacy
// version.
func (m *Migrator) CheckMigrationNeeded(storedVersion string, records []any) Status {
	if storedVersion == "" {
		storedVersion = paper.LegacySchemaVersion
	}

	status := Status{To: m.version, Count: len(records)}
	if storedVersion != m.version {
		status.Needed = true
		status.From = storedVersion
		return status
	}

	for _, raw := range records {
		if !m.IsCurrent(raw) {
			status.Needed = true
			status.From = MixedVersions
			return status
		}
	}

	status.From = m.version
	return status
}
