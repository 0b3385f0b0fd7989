// Package library is the paper collection service: it owns the read,
// migrate and write cycle over the persisted collection.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/matsen/papershelf/internal/kv"
	"github.com/matsen/papershelf/internal/migrate"
	"github.com/matsen/papershelf/internal/normalize"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/validate"
)

// Library reads and writes the stored paper collection.
type Library struct {
	store     kv.Store
	version   string
	migrator  *migrate.Migrator
	validator *validate.Validator
	logger    *zap.Logger
	metrics   *Metrics
	now       func() time.Time
	newID     func() string

	// mu serializes every read-modify-write of the collection.
	mu    sync.Mutex
	group singleflight.Group
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger for the library and its migrator.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics records activity in m.
func WithMetrics(m *Metrics) Option {
	return func(l *Library) {
		l.metrics = m
	}
}

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator overrides how ids are assigned to new records.
func WithIDGenerator(fn func() string) Option {
	return func(l *Library) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// WithSchemaVersion overrides the target schema version.
func WithSchemaVersion(version string) Option {
	return func(l *Library) {
		l.version = version
	}
}

// Open returns a Library over store.
func Open(store kv.Store, opts ...Option) *Library {
	l := &Library{
		store:   store,
		version: paper.CurrentSchemaVersion,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.migrator = migrate.New(l.version,
		migrate.WithLogger(l.logger.Named("migrate")),
		migrate.WithClock(l.now),
	)
	l.validator = validate.New(l.version)
	return l
}

// Migrator returns the migrator the library applies on read.
func (l *Library) Migrator() *migrate.Migrator {
	return l.migrator
}

// Validator returns the validator the library checks records with.
func (l *Library) Validator() *validate.Validator {
	return l.validator
}

// Outcome is the result of a stored-collection migration.
type Outcome struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Version string         `json:"version"`
	Report  migrate.Report `json:"report"`
}

// load reads the raw stored collection and its version marker.
// A stored value that is not a list is treated as an empty collection.
func (l *Library) load(ctx context.Context) ([]any, string, error) {
	values, err := l.store.Get(ctx, kv.KeyPapers, kv.KeySchemaVersion)
	if err != nil {
		return nil, "", fmt.Errorf("reading collection: %w", err)
	}

	var records []any
	if raw, ok := values[kv.KeyPapers]; ok {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, "", fmt.Errorf("decoding %s: %w", kv.KeyPapers, err)
		}
		list, isList := v.([]any)
		if !isList && v != nil {
			l.logger.Warn("stored collection is not a list, treating as empty",
				zap.String("type", fmt.Sprintf("%T", v)))
		}
		records = list
	}
	if records == nil {
		records = []any{}
	}

	var version string
	if raw, ok := values[kv.KeySchemaVersion]; ok {
		if err := json.Unmarshal(raw, &version); err != nil {
			l.logger.Warn("stored schema version is not a string", zap.ByteString("value", raw))
			version = ""
		}
	}

	return records, version, nil
}

func (l *Library) save(ctx context.Context, records []any) error {
	if err := l.store.Set(ctx, map[string]any{kv.KeyPapers: records}); err != nil {
		return fmt.Errorf("writing collection: %w", err)
	}
	return nil
}

// Papers returns every stored record migrated to the current version.
// Nothing is written back; records that fail to migrate are skipped.
func (l *Library) Papers(ctx context.Context) ([]paper.Record, error) {
	raw, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	migrated, report := l.migrator.MigrateCollection(raw)
	failed := make(map[int]bool, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.Index] = true
	}

	out := make([]paper.Record, 0, len(migrated))
	for i, r := range migrated {
		if failed[i] {
			continue
		}
		if rec, ok := paper.AsRecord(r); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Status reports whether the stored collection needs migrating.
func (l *Library) Status(ctx context.Context) (migrate.Status, error) {
	raw, version, err := l.load(ctx)
	if err != nil {
		return migrate.Status{}, err
	}
	return l.migrator.CheckMigrationNeeded(version, raw), nil
}

// Migrate rewrites the stored collection to the current version in one
// atomic write. Concurrent calls share a single run.
func (l *Library) Migrate(ctx context.Context) (Outcome, error) {
	v, err, _ := l.group.Do(kv.KeyPapers, func() (any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.migrateLocked(ctx)
	})
	if err != nil {
		return Outcome{Version: l.version}, err
	}
	return v.(Outcome), nil
}

func (l *Library) migrateLocked(ctx context.Context) (Outcome, error) {
	raw, _, err := l.load(ctx)
	if err != nil {
		return Outcome{}, err
	}

	l.logger.Info("migrating papers",
		zap.Int("count", len(raw)),
		zap.String("version", l.version),
	)

	migrated, report := l.migrator.MigrateCollection(raw)

	err = l.store.Set(ctx, map[string]any{
		kv.KeyPapers:        migrated,
		kv.KeySchemaVersion: l.version,
		kv.KeyLastMigration: normalize.FormatISO(l.now()),
	})
	if err != nil {
		l.logger.Error("migration failed", zap.Error(err))
		return Outcome{}, fmt.Errorf("writing migrated collection: %w", err)
	}

	l.metrics.observeMigration(report.Migrated, report.Failed)
	l.logger.Info("migration complete",
		zap.Int("count", len(migrated)),
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", report.Failed),
	)

	return Outcome{
		Success: true,
		Count:   len(migrated),
		Version: l.version,
		Report:  report,
	}, nil
}

// Add saves a new record. The record is stamped with the save time, given
// an id when it has none, migrated and validated. It is refused with
// ErrDuplicate when a saved record has the same title or URL, and with an
// *InvalidRecordError when validation finds hard errors.
func (l *Library) Add(ctx context.Context, raw map[string]any) (paper.Record, validate.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, _, err := l.load(ctx)
	if err != nil {
		return nil, validate.Result{}, err
	}

	rec, result, err := l.prepare(raw, true)
	if err != nil {
		return nil, result, err
	}
	if i := findDuplicate(records, rec); i >= 0 {
		return nil, result, fmt.Errorf("%w: matches record %d", ErrDuplicate, i)
	}

	if err := l.save(ctx, append(records, rec)); err != nil {
		return nil, result, err
	}

	l.logger.Info("paper saved", zap.String("id", rec.IDString()), zap.String("title", rec.TitleKey()))
	return rec, result, nil
}

// prepare turns user input into a validated current-version record. With
// stampNow the save time replaces any date in the input; otherwise the save
// time is only used when the input carries neither savedAt nor dateAdded.
func (l *Library) prepare(raw map[string]any, stampNow bool) (paper.Record, validate.Result, error) {
	in := paper.Record(raw).Clone()
	if stampNow || (!in.Truthy(paper.FieldSavedAt) && !in.Truthy(paper.FieldDateAdded)) {
		in[paper.FieldSavedAt] = normalize.FormatISO(l.now())
	}
	if !in.Has(paper.FieldID) {
		in[paper.FieldID] = l.newID()
	}
	// Input is re-stamped so it always passes through migration.
	delete(in, paper.FieldSchemaVersion)

	rec, err := l.migrator.MigrateRecord(map[string]any(in))
	if err != nil {
		return nil, validate.Result{}, fmt.Errorf("migrating record: %w", err)
	}

	result := l.validator.Validate(rec)
	l.metrics.observeValidation(result)
	if !result.Valid {
		return nil, result, &InvalidRecordError{Result: result}
	}
	return rec, result, nil
}

func findDuplicate(records []any, rec paper.Record) int {
	title, url := rec.TitleKey(), rec.URLKey()
	for i, r := range records {
		existing, ok := paper.AsRecord(r)
		if !ok {
			continue
		}
		if title != "" && existing.TitleKey() == title {
			return i
		}
		if url != "" && existing.URLKey() == url {
			return i
		}
	}
	return -1
}

func indexOf(records []any, id string) int {
	for i, r := range records {
		if rec, ok := paper.AsRecord(r); ok && rec.Has(paper.FieldID) && rec.IDString() == id {
			return i
		}
	}
	return -1
}

// Get returns the migrated record with the given id.
func (l *Library) Get(ctx context.Context, id string) (paper.Record, error) {
	records, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec, err := l.migrator.MigrateRecord(records[i])
	if err != nil {
		return nil, fmt.Errorf("migrating record %s: %w", id, err)
	}
	return rec, nil
}

// Stored returns the record with the given id exactly as it is persisted,
// without migrating it.
func (l *Library) Stored(ctx context.Context, id string) (any, error) {
	records, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return records[i], nil
}

// Delete removes the record with the given id.
func (l *Library) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, _, err := l.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(records, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	remaining := append(records[:i:i], records[i+1:]...)
	if err := l.save(ctx, remaining); err != nil {
		return err
	}

	l.logger.Info("paper deleted", zap.String("id", id))
	return nil
}

// Clear removes every record. The schema version marker is kept.
func (l *Library) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.save(ctx, []any{})
}

// Update applies fn to the migrated record with the given id and saves the
// result if it still validates. The record's id cannot be changed.
func (l *Library) Update(ctx context.Context, id string, fn func(paper.Record) error) (paper.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	current, err := l.migrator.MigrateRecord(records[i])
	if err != nil {
		return nil, fmt.Errorf("migrating record %s: %w", id, err)
	}

	rec := current.Clone()
	if err := fn(rec); err != nil {
		return nil, err
	}
	rec[paper.FieldID] = current[paper.FieldID]
	rec[paper.FieldSchemaVersion] = l.version
	rec[paper.FieldLastModified] = normalize.FormatISO(l.now())

	result := l.validator.Validate(rec)
	l.metrics.observeValidation(result)
	if !result.Valid {
		return nil, &InvalidRecordError{Result: result}
	}

	records[i] = rec
	if err := l.save(ctx, records); err != nil {
		return nil, err
	}
	return rec, nil
}

// Check is the validation result of one stored record.
type Check struct {
	Index  int             `json:"index"`
	ID     any             `json:"id,omitempty"`
	Result validate.Result `json:"result"`
}

// ValidateAll validates every stored record as it is stored, without
// migrating it first, so legacy records report what migration would fix.
func (l *Library) ValidateAll(ctx context.Context) ([]Check, error) {
	records, _, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	checks := make([]Check, len(records))
	for i, r := range records {
		result := l.validator.Validate(r)
		l.metrics.observeValidation(result)

		var id any
		if rec, ok := paper.AsRecord(r); ok {
			id = rec[paper.FieldID]
		}
		checks[i] = Check{Index: i, ID: id, Result: result}
	}
	return checks, nil
}
