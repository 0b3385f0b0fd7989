package migrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matsen/papershelf/internal/paper"
)

var fixedNow = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

const fixedNowISO = "2025-02-03T04:05:06.000Z"

func newTestMigrator(opts ...Option) *Migrator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(paper.CurrentSchemaVersion, opts...)
}

func TestDetectSchemaVersion(t *testing.T) {
	m := newTestMigrator()

	assert.Equal(t, "1.0.0", m.DetectSchemaVersion(paper.Record{"id": 1}))
	assert.Equal(t, "1.0.0", m.DetectSchemaVersion(paper.Record{"_schemaVersion": ""}))
	assert.Equal(t, "1.2.0", m.DetectSchemaVersion(paper.Record{"_schemaVersion": "1.2.0"}))
	assert.Equal(t, "3", m.DetectSchemaVersion(paper.Record{"_schemaVersion": 3.0}))
}

func TestMigrateRecord_Defaults(t *testing.T) {
	m := newTestMigrator()

	got, err := m.MigrateRecord(map[string]any{
		"id":        1.0,
		"title":     "T",
		"dateAdded": "2024-01-01T00:00:00.000Z",
	})
	require.NoError(t, err)

	want := paper.Record{
		"_schemaVersion": "2.0.0",
		"_lastModified":  fixedNowISO,
		"id":             1.0,
		"title":          "T",
		"authors":        []paper.Person{},
		"dateAdded":      "2024-01-01T00:00:00.000Z",
		"savedAt":        "2024-01-01T00:00:00.000Z",
		"keywords":       []string{},
		"itemType":       "article",
		"status":         "to-read",
		"priority":       "medium",
		"language":       "en",
		"hasPDF":         false,
	}
	assert.Equal(t, want, got)
}

func TestMigrateRecord_LegacyShape(t *testing.T) {
	m := newTestMigrator()

	got, err := m.MigrateRecord(map[string]any{
		"id":              "abc",
		"title":           "Phylogenetics at scale",
		"authors":         "Doe, John; Jane Smith",
		"doi":             "doi:10.1000/xyz123",
		"savedAt":         "2023-05-06",
		"year":            2023.0,
		"keywords":        "trees, inference",
		"publicationType": "Conference Paper",
		"journal":         "ICML",
		"notes":           nil,
		"status":          "read",
		"pdf":             "data:application/pdf;base64,AAAA",
		"unknownField":    "dropped",
	})
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", got["_schemaVersion"])
	assert.Equal(t, []paper.Person{
		{FullName: "John Doe", FirstName: "John", LastName: "Doe"},
		{FullName: "Jane Smith", FirstName: "Jane", LastName: "Smith"},
	}, got["authors"])
	assert.Equal(t, "https://doi.org/10.1000/xyz123", got["doi"])
	assert.Equal(t, "2023-05-06T00:00:00.000Z", got["dateAdded"])
	assert.Equal(t, got["dateAdded"], got["savedAt"])
	assert.Equal(t, "2023", got["year"])
	assert.Equal(t, []string{"trees", "inference"}, got["keywords"])
	assert.Equal(t, "inproceedings", got["itemType"])
	assert.Equal(t, "ICML", got["journal"])
	assert.Equal(t, "read", got["status"])
	assert.Equal(t, true, got["hasPDF"])
	assert.NotContains(t, got, "notes")
	assert.NotContains(t, got, "unknownField")
	assert.NotContains(t, got, "publicationType")
}

func TestMigrateRecord_ExplicitItemTypeWins(t *testing.T) {
	m := newTestMigrator()

	got, err := m.MigrateRecord(map[string]any{"itemType": "book", "publicationType": "thesis"})
	require.NoError(t, err)
	assert.Equal(t, "book", got["itemType"])
}

func TestMigrateRecord_ExplicitHasPDFKept(t *testing.T) {
	m := newTestMigrator()

	got, err := m.MigrateRecord(map[string]any{"pdfPath": "papers/a.pdf", "hasPDF": false})
	require.NoError(t, err)
	assert.Equal(t, false, got["hasPDF"])

	got, err = m.MigrateRecord(map[string]any{"pdfPath": "papers/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, true, got["hasPDF"])
}

func TestMigrateRecord_MissingTitleAndDate(t *testing.T) {
	m := newTestMigrator()

	got, err := m.MigrateRecord(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "", got["title"])
	assert.Equal(t, fixedNowISO, got["dateAdded"])
	assert.NotContains(t, got, "id")
}

func TestMigrateRecord_Idempotent(t *testing.T) {
	m := newTestMigrator()

	inputs := []map[string]any{
		{},
		{"id": 0.0, "title": "zero id"},
		{"_schemaVersion": "1.0.0", "title": "x", "authors": []any{"A B"}},
		{"_schemaVersion": "9.9.9", "title": "future"},
		{"title": "t", "keywords": []any{"a", ""}, "doi": "10.1234/5678"},
	}

	for _, in := range inputs {
		once, err := m.MigrateRecord(in)
		require.NoError(t, err)
		twice, err := m.MigrateRecord(once)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
		assert.Equal(t, paper.CurrentSchemaVersion, once["_schemaVersion"])
	}
}

func TestMigrateRecord_CurrentReturnedUnchanged(t *testing.T) {
	m := newTestMigrator()
	in := paper.Record{"_schemaVersion": "2.0.0", "title": "kept", "authors": "not normalized"}

	got, err := m.MigrateRecord(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestMigrateRecord_MissingVersionEqualsLegacy(t *testing.T) {
	m := newTestMigrator()
	base := map[string]any{"id": 7.0, "title": "legacy", "authors": "A B", "dateAdded": "2020-01-01"}
	stamped := map[string]any{"_schemaVersion": "1.0.0"}
	for k, v := range base {
		stamped[k] = v
	}

	a, err := m.MigrateRecord(base)
	require.NoError(t, err)
	b, err := m.MigrateRecord(stamped)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMigrateRecord_NotARecord(t *testing.T) {
	m := newTestMigrator()

	for _, in := range []any{nil, "string", 3.0, []any{}, map[string]any(nil)} {
		_, err := m.MigrateRecord(in)
		assert.ErrorIs(t, err, ErrNotARecord)
	}
}

func TestMigrateRecord_UnknownVersionWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var diags []Diagnostic
	m := newTestMigrator(
		WithLogger(zap.New(core)),
		WithDiagnostics(func(d Diagnostic) { diags = append(diags, d) }),
	)

	got, err := m.MigrateRecord(map[string]any{"_schemaVersion": "0.9", "title": "old", "dateAdded": "2020-01-01T00:00:00Z"})
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", got["_schemaVersion"])
	require.Len(t, diags, 1)
	assert.Equal(t, LevelWarning, diags[0].Level)
	assert.Equal(t, "_schemaVersion", diags[0].Field)
	assert.Equal(t, 1, logs.Len())
}

func TestMigrateRecord_UnparseableDateWarns(t *testing.T) {
	var diags []Diagnostic
	m := newTestMigrator(WithDiagnostics(func(d Diagnostic) { diags = append(diags, d) }))

	got, err := m.MigrateRecord(map[string]any{"title": "x", "savedAt": "yesterday-ish"})
	require.NoError(t, err)

	assert.Equal(t, fixedNowISO, got["dateAdded"])
	require.Len(t, diags, 1)
	assert.Equal(t, "dateAdded", diags[0].Field)
}

func TestMigrateRecord_DoesNotMutateInput(t *testing.T) {
	m := newTestMigrator()
	authors := []any{map[string]any{"firstName": "Ada", "lastName": "Lovelace"}}
	in := map[string]any{"title": "x", "authors": authors, "year": 1843.0}

	_, err := m.MigrateRecord(in)
	require.NoError(t, err)

	assert.Equal(t, 1843.0, in["year"])
	assert.NotContains(t, in, "_schemaVersion")
	assert.NotContains(t, authors[0].(map[string]any), "fullName")
}

func TestYearString(t *testing.T) {
	assert.Equal(t, "2024", yearString(2024.0))
	assert.Equal(t, "2024", yearString("2024"))
	assert.Equal(t, "1999", yearString(1999))
	assert.Equal(t, "true", yearString(true))
}
