package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matsen/papershelf/internal/importer"
	"github.com/matsen/papershelf/internal/kv"
	"github.com/matsen/papershelf/internal/migrate"
	"github.com/matsen/papershelf/internal/paper"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLibrary(t *testing.T, store kv.Store, opts ...Option) *Library {
	t.Helper()
	n := 0
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	}, opts...)
	return Open(store, opts...)
}

func seed(t *testing.T, store kv.Store, values map[string]any) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), values))
}

func storedPapers(t *testing.T, store kv.Store) []any {
	t.Helper()
	var out []any
	_, err := kv.GetJSON(context.Background(), store, kv.KeyPapers, &out)
	require.NoError(t, err)
	return out
}

func legacyPapers() []any {
	return []any{
		map[string]any{"id": 1, "title": "First", "authors": "Doe, John", "savedAt": "2023-01-02T00:00:00.000Z"},
		"corrupt",
		map[string]any{"id": 3, "title": "Third", "doi": "10.1000/abc"},
	}
}

func TestMigrate_RewritesCollection(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: legacyPapers()})
	metrics := NewMetrics()
	lib := newTestLibrary(t, store, WithMetrics(metrics))

	outcome, err := lib.Migrate(ctx)
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, 3, outcome.Count)
	assert.Equal(t, "2.0.0", outcome.Version)
	assert.Equal(t, 2, outcome.Report.Migrated)
	assert.Equal(t, 1, outcome.Report.Failed)

	stored := storedPapers(t, store)
	require.Len(t, stored, 3)
	assert.Equal(t, "corrupt", stored[1])
	assert.Equal(t, "https://doi.org/10.1000/abc", stored[2].(map[string]any)["doi"])

	var version, last string
	_, err = kv.GetJSON(ctx, store, kv.KeySchemaVersion, &version)
	require.NoError(t, err)
	_, err = kv.GetJSON(ctx, store, kv.KeyLastMigration, &last)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", version)
	assert.Equal(t, "2025-06-01T12:00:00.000Z", last)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsMigrated))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MigrationFailures))
}

func TestMigrate_EmptyStore(t *testing.T) {
	store := kv.NewMemory()
	lib := newTestLibrary(t, store)

	outcome, err := lib.Migrate(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Zero(t, outcome.Count)
	assert.Equal(t, []any{}, storedPapers(t, store))
}

func TestMigrate_Concurrent(t *testing.T) {
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: legacyPapers()})
	lib := newTestLibrary(t, store)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = lib.Migrate(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	status, err := lib.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Needed, "the corrupt element keeps the collection mixed")
	assert.Equal(t, migrate.MixedVersions, status.From)
}

func TestMigrate_StoreClosed(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Close())
	lib := newTestLibrary(t, store)

	outcome, err := lib.Migrate(context.Background())
	require.ErrorIs(t, err, kv.ErrClosed)
	assert.False(t, outcome.Success)
}

func TestMigrate_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: legacyPapers()})
	lib := newTestLibrary(t, store, WithLogger(zap.New(core)))

	_, err := lib.Migrate(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(1), logs.All()[0].ContextMap()["index"])
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	lib := newTestLibrary(t, store)

	status, err := lib.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, migrate.Status{Needed: true, From: "1.0.0", To: "2.0.0"}, status)

	seed(t, store, map[string]any{kv.KeyPapers: []any{map[string]any{"title": "x"}}})
	_, err = lib.Migrate(ctx)
	require.NoError(t, err)

	status, err = lib.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Needed)
	assert.Equal(t, 1, status.Count)
}

func TestPapers_MigratesOnReadWithoutWriting(t *testing.T) {
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: legacyPapers()})
	lib := newTestLibrary(t, store)

	papers, err := lib.Papers(context.Background())
	require.NoError(t, err)

	require.Len(t, papers, 2)
	assert.Equal(t, "2.0.0", papers[0]["_schemaVersion"])
	assert.NotContains(t, storedPapers(t, store)[0].(map[string]any), "_schemaVersion")
}

func TestPapers_NonListStored(t *testing.T) {
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: map[string]any{"title": "x"}})
	lib := newTestLibrary(t, store)

	papers, err := lib.Papers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	metrics := NewMetrics()
	lib := newTestLibrary(t, store, WithMetrics(metrics))

	rec, result, err := lib.Add(ctx, map[string]any{
		"title":   "New paper",
		"authors": "Jane Smith and John Doe",
		"url":     "https://example.org/p",
		"savedAt": "1999-01-01T00:00:00.000Z",
	})
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, "id-1", rec["id"])
	assert.Equal(t, "2025-06-01T12:00:00.000Z", rec["dateAdded"])
	assert.Len(t, rec["authors"], 2)
	assert.Len(t, storedPapers(t, store), 1)
	assert.Greater(t, testutil.ToFloat64(metrics.ValidationIssues.WithLabelValues("warning")), 0.0)

	_, _, err = lib.Add(ctx, map[string]any{"title": "New paper"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, _, err = lib.Add(ctx, map[string]any{"title": "Other", "url": " https://example.org/p"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, _, err = lib.Add(ctx, map[string]any{"id": 9, "title": "Kept id"})
	require.NoError(t, err)
	got, err := lib.Get(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "Kept id", got["title"])
}

func TestAdd_Invalid(t *testing.T) {
	lib := newTestLibrary(t, kv.NewMemory())

	_, result, err := lib.Add(context.Background(), map[string]any{"title": "  ", "year": "99"})

	var invalid *InvalidRecordError
	require.ErrorAs(t, err, &invalid)
	assert.False(t, result.Valid)
	assert.Contains(t, invalid.Error(), "title")
	assert.Contains(t, invalid.Error(), "year")
}

func TestGetDeleteClear(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: legacyPapers()})
	lib := newTestLibrary(t, store)

	rec, err := lib.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Third", rec["title"])
	assert.Equal(t, "2.0.0", rec["_schemaVersion"])

	_, err = lib.Get(ctx, "2")
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := lib.Stored(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "10.1000/abc", raw.(map[string]any)["doi"])

	require.NoError(t, lib.Delete(ctx, "1"))
	assert.Len(t, storedPapers(t, store), 2)
	assert.ErrorIs(t, lib.Delete(ctx, "1"), ErrNotFound)

	require.NoError(t, lib.Clear(ctx))
	assert.Empty(t, storedPapers(t, store))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: legacyPapers()})
	lib := newTestLibrary(t, store)

	rec, err := lib.Update(ctx, "3", func(r paper.Record) error {
		r["status"] = "reading"
		r["id"] = "hijacked"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "reading", rec["status"])
	assert.Equal(t, 3.0, rec["id"])

	stored := storedPapers(t, store)[2].(map[string]any)
	assert.Equal(t, "reading", stored["status"])
	assert.Equal(t, "2.0.0", stored["_schemaVersion"])

	_, err = lib.Update(ctx, "3", func(r paper.Record) error {
		r["status"] = "done"
		return nil
	})
	var invalid *InvalidRecordError
	assert.ErrorAs(t, err, &invalid)

	boom := errors.New("boom")
	_, err = lib.Update(ctx, "3", func(paper.Record) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = lib.Update(ctx, "404", func(paper.Record) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateAll(t *testing.T) {
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: legacyPapers()})
	lib := newTestLibrary(t, store)

	checks, err := lib.ValidateAll(context.Background())
	require.NoError(t, err)

	require.Len(t, checks, 3)
	for _, c := range checks {
		assert.False(t, c.Result.Valid)
	}
	assert.Equal(t, "record", checks[1].Result.Errors[0].Field)
	assert.Equal(t, 3.0, checks[2].ID)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: []any{map[string]any{"id": "a", "title": "Existing"}}})
	lib := newTestLibrary(t, store)

	result, err := lib.Import(ctx, []any{
		map[string]any{"title": "Existing"},
		map[string]any{"title": "Fresh"},
		map[string]any{"title": "Fresh"},
		map[string]any{"title": ""},
		42.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Rejected, 2)
	assert.Equal(t, 3, result.Rejected[0].Index)
	assert.Equal(t, 4, result.Rejected[1].Index)
	assert.Len(t, storedPapers(t, store), 2)
}

func TestImport_KeepsDates(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	lib := newTestLibrary(t, store)

	converted, errs := importer.ParsePaperpile([]byte(
		`[{"citekey": "Old2018", "title": "From Paperpile", "created": "2018-01-01T00:00:00Z"}]`))
	require.Empty(t, errs)

	exported := map[string]any{
		"_schemaVersion": "2.0.0",
		"id":             "exported",
		"title":          "From an export",
		"dateAdded":      "2019-03-04T05:06:07.000Z",
	}
	undated := map[string]any{"id": "undated", "title": "No date"}

	result, err := lib.Import(ctx, append([]any{exported, undated}, converted...))
	require.NoError(t, err)
	require.Equal(t, 3, result.Added, "rejected: %v", result.Rejected)

	papers, err := lib.Papers(ctx)
	require.NoError(t, err)
	require.Len(t, papers, 3)

	assert.Equal(t, "2019-03-04T05:06:07.000Z", papers[0]["dateAdded"])
	assert.Equal(t, "2025-06-01T12:00:00.000Z", papers[1]["dateAdded"])
	assert.Equal(t, "2018-01-01T00:00:00Z", papers[2]["dateAdded"])
}

func TestAdd_DuplicateIgnoresSurroundingSpace(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t, kv.NewMemory())

	_, _, err := lib.Add(ctx, map[string]any{"title": "Deep Learning"})
	require.NoError(t, err)

	_, _, err = lib.Add(ctx, map[string]any{"title": "  Deep Learning  "})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAdd_StampsSaveTime(t *testing.T) {
	lib := newTestLibrary(t, kv.NewMemory())

	rec, _, err := lib.Add(context.Background(), map[string]any{
		"title":     "Saved today",
		"dateAdded": "2019-03-04T05:06:07.000Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T12:00:00.000Z", rec["dateAdded"])
}

func TestPapers_SkipsFailedRecords(t *testing.T) {
	store := kv.NewMemory()
	seed(t, store, map[string]any{kv.KeyPapers: []any{
		map[string]any{"id": "a", "title": "First"},
		map[string]any{"id": "b", "title": "Second"},
		map[string]any{"id": "c", "title": "Third"},
	}})

	calls := 0
	lib := newTestLibrary(t, store, WithClock(func() time.Time {
		calls++
		if calls == 2 {
			panic("clock failure")
		}
		return fixedNow
	}))

	papers, err := lib.Papers(context.Background())
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, "a", papers[0]["id"])
	assert.Equal(t, "c", papers[1]["id"])
	for _, p := range papers {
		assert.Equal(t, "2.0.0", p["_schemaVersion"])
	}
}

func TestLibrary_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "shelf.db"))
	require.NoError(t, err)
	defer store.Close()

	lib := newTestLibrary(t, store)
	_, _, err = lib.Add(ctx, map[string]any{"title": "Persisted", "keywords": []any{"a"}})
	require.NoError(t, err)

	raw, err := store.Get(ctx, kv.KeyPapers)
	require.NoError(t, err)
	var papers []map[string]any
	require.NoError(t, json.Unmarshal(raw[kv.KeyPapers], &papers))
	require.Len(t, papers, 1)
	assert.Equal(t, []any{"a"}, papers[0]["keywords"])
	assert.Equal(t, "id-1", papers[0]["id"])
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordsMigrated.Add(3)
	path := filepath.Join(t.TempDir(), "shelf.prom")

	require.NoError(t, m.WriteTextfile(path))
	assert.FileExists(t, path)

	count, err := testutil.GatherAndCount(m.Registry(), "shelf_records_migrated_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
