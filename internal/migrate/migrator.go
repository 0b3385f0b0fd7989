// Package migrate upgrades paper records of any earlier shape to the current
// canonical schema.
//
// A Migrator holds only immutable configuration, so one instance may be used
// from many goroutines at once.
package migrate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/papershelf/internal/normalize"
	"github.com/matsen/papershelf/internal/paper"
)

// Migrator rewrites records to a single target schema version.
type Migrator struct {
	version string
	now     func() time.Time
	logger  *zap.Logger
	hook    func(Diagnostic)
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger diagnostics are written to.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) {
		if now != nil {
			m.now = now
		}
	}
}

// WithDiagnostics registers a callback invoked for every diagnostic, in
// addition to logging. The callback must be safe for concurrent use if the
// Migrator is shared.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(m *Migrator) {
		m.hook = fn
	}
}

// New returns a Migrator targeting version.
func New(version string, opts ...Option) *Migrator {
	m := &Migrator{
		version: version,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Version returns the target schema version.
func (m *Migrator) Version() string {
	return m.version
}

// DetectSchemaVersion returns the record's _schemaVersion, or the legacy
// version when it has none.
func (m *Migrator) DetectSchemaVersion(record paper.Record) string {
	v := record[paper.FieldSchemaVersion]
	if !paper.Truthy(v) {
		return paper.LegacySchemaVersion
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IsCurrent reports whether raw is a record already at the target version.
func (m *Migrator) IsCurrent(raw any) bool {
	rec, ok := paper.AsRecord(raw)
	return ok && m.DetectSchemaVersion(rec) == m.version
}

// MigrateRecord returns raw rewritten to the target version. A record that is
// already current is returned as is, so migrating twice equals migrating once.
// Unknown versions are migrated as 1.0.0 with a warning.
func (m *Migrator) MigrateRecord(raw any) (paper.Record, error) {
	out, _, diags, err := m.migrate(raw, -1)
	for _, d := range diags {
		m.emit(d)
	}
	return out, err
}

func (m *Migrator) migrate(raw any, index int) (out paper.Record, changed bool, diags []Diagnostic, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, changed, diags = nil, false, nil
			err = fmt.Errorf("migration panicked: %v", p)
		}
	}()

	rec, ok := paper.AsRecord(raw)
	if !ok {
		return nil, false, nil, fmt.Errorf("%w: got %T", ErrNotARecord, raw)
	}

	version := m.DetectSchemaVersion(rec)
	if version == m.version {
		return rec, false, nil, nil
	}

	if !strings.HasPrefix(version, "1.") {
		diags = append(diags, Diagnostic{
			Level:   LevelWarning,
			Index:   index,
			ID:      rec[paper.FieldID],
			Field:   paper.FieldSchemaVersion,
			Message: fmt.Sprintf("unknown schema version %q, migrating as %s", version, paper.LegacySchemaVersion),
		})
	}

	out, more := m.fromV1(rec, index)
	return out, true, append(diags, more...), nil
}

// fromV1 builds a fresh current-version record from a 1.x record.
func (m *Migrator) fromV1(old paper.Record, index int) (paper.Record, []Diagnostic) {
	var diags []Diagnostic
	now := m.now()

	out := paper.Record{
		paper.FieldSchemaVersion: m.version,
		paper.FieldLastModified:  normalize.FormatISO(now),
	}

	if old.Has(paper.FieldID) {
		out[paper.FieldID] = old[paper.FieldID]
	}
	if old.Has(paper.FieldTitle) {
		out[paper.FieldTitle] = old[paper.FieldTitle]
	} else {
		out[paper.FieldTitle] = ""
	}

	out[paper.FieldAuthors] = normalize.Authors(old[paper.FieldAuthors])

	switch doi := old[paper.FieldDOI].(type) {
	case string:
		if doi != "" {
			out[paper.FieldDOI] = normalize.DOI(doi)
		}
	default:
		if paper.Truthy(doi) {
			out[paper.FieldDOI] = doi
		}
	}

	dateSource := old[paper.FieldSavedAt]
	if !paper.Truthy(dateSource) {
		dateSource = old[paper.FieldDateAdded]
	}
	dateAdded, fellBack := normalize.DateWithFallback(dateSource, now)
	if fellBack {
		diags = append(diags, Diagnostic{
			Level:   LevelWarning,
			Index:   index,
			ID:      old[paper.FieldID],
			Field:   paper.FieldDateAdded,
			Message: fmt.Sprintf("unparseable date %v replaced with current time", dateSource),
		})
	}
	out[paper.FieldDateAdded] = dateAdded
	out[paper.FieldSavedAt] = dateAdded

	if old.Truthy(paper.FieldYear) {
		out[paper.FieldYear] = yearString(old[paper.FieldYear])
	}

	out[paper.FieldKeywords] = normalize.Keywords(old[paper.FieldKeywords])

	for _, field := range paper.PassThroughFields {
		if old.Has(field) {
			out[field] = old[field]
		}
	}

	switch {
	case old.Truthy(paper.FieldItemType):
		out[paper.FieldItemType] = old[paper.FieldItemType]
	case old.String(paper.FieldPublicationType) != "":
		out[paper.FieldItemType] = normalize.ItemType(old.String(paper.FieldPublicationType))
	default:
		out[paper.FieldItemType] = paper.DefaultItemType
	}

	applyDefaults(out)
	return out, diags
}

func applyDefaults(r paper.Record) {
	if !r.Truthy(paper.FieldStatus) {
		r[paper.FieldStatus] = paper.DefaultStatus
	}
	if !r.Truthy(paper.FieldPriority) {
		r[paper.FieldPriority] = paper.DefaultPriority
	}
	if !r.Truthy(paper.FieldLanguage) {
		r[paper.FieldLanguage] = paper.DefaultLanguage
	}
	if !r.Has(paper.FieldHasPDF) {
		hasPDF := false
		for _, field := range paper.PDFReferenceFields {
			if r.Truthy(field) {
				hasPDF = true
				break
			}
		}
		r[paper.FieldHasPDF] = hasPDF
	}
}

// yearString renders a legacy year value. JSON numbers decode as float64, so
// 2024 must not become "2024.000000" or "2.024e+03".
func yearString(v any) string {
	switch y := v.(type) {
	case string:
		return y
	case float64:
		return strconv.FormatFloat(y, 'f', -1, 64)
	case int:
		return strconv.Itoa(y)
	case int64:
		return strconv.FormatInt(y, 10)
	default:
		return fmt.Sprint(v)
	}
}

func (m *Migrator) emit(d Diagnostic) {
	fields := []zap.Field{zap.Int("index", d.Index)}
	if d.Field != "" {
		fields = append(fields, zap.String("field", d.Field))
	}
	if d.ID != nil {
		fields = append(fields, zap.Any("id", d.ID))
	}

	switch d.Level {
	case LevelError:
		m.logger.Error(d.Message, append(fields, zap.Error(d.Err))...)
	default:
		m.logger.Warn(d.Message, fields...)
	}

	if m.hook != nil {
		m.hook(d)
	}
}
