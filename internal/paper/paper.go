// Package paper defines the canonical paper record and its schema vocabulary.
package paper

import (
	"fmt"
	"strconv"
	"strings"
)

// Schema versions known to the engine.
const (
	// CurrentSchemaVersion is the version every migrated record is stamped with.
	CurrentSchemaVersion = "2.0.0"
	// LegacySchemaVersion is assumed for records that carry no _schemaVersion.
	LegacySchemaVersion = "1.0.0"
)

// Field names of the canonical record.
const (
	FieldSchemaVersion   = "_schemaVersion"
	FieldLastModified    = "_lastModified"
	FieldID              = "id"
	FieldTitle           = "title"
	FieldAuthors         = "authors"
	FieldDOI             = "doi"
	FieldDateAdded       = "dateAdded"
	FieldSavedAt         = "savedAt"
	FieldYear            = "year"
	FieldKeywords        = "keywords"
	FieldItemType        = "itemType"
	FieldPublicationType = "publicationType"
	FieldStatus          = "status"
	FieldPriority        = "priority"
	FieldLanguage        = "language"
	FieldAbstract        = "abstract"
	FieldURL             = "url"
	FieldPDF             = "pdf"
	FieldPDFPath         = "pdfPath"
	FieldPDFFilename     = "pdfFilename"
	FieldPDFSource       = "pdfSource"
	FieldHasPDF          = "hasPDF"
)

// PassThroughFields are copied verbatim by migration when present and non-null.
var PassThroughFields = []string{
	FieldURL, FieldAbstract, "journal", "volume", "issue", "pages",
	"publisher", "issn", "isbn", "chapter", FieldStatus, FieldPriority,
	"rating", "relevance", "keyPoints", "notes", FieldLanguage,
	"citation", FieldPDF, FieldPDFPath, FieldPDFFilename, FieldHasPDF, FieldPDFSource,
	"tags", "collections",
}

// PDFReferenceFields hold a PDF payload or a reference to one.
var PDFReferenceFields = []string{FieldPDF, FieldPDFPath, FieldPDFFilename}

// Defaults applied by migration when the field is unset.
const (
	DefaultStatus   = "to-read"
	DefaultPriority = "medium"
	DefaultLanguage = "en"
	DefaultItemType = "article"
)

// ItemTypes lists the allowed itemType values (BibTeX entry types).
var ItemTypes = []string{
	"article", "inproceedings", "inbook", "incollection", "phdthesis",
	"mastersthesis", "techreport", "misc", "book", "proceedings",
}

// Statuses lists the allowed reading statuses.
var Statuses = []string{"to-read", "reading", "read", "archived"}

// Priorities lists the allowed priorities.
var Priorities = []string{"low", "medium", "high"}

// DOIPrefix is the canonical resolver prefix every stored DOI starts with.
const DOIPrefix = "https://doi.org/"

// Contains reports whether value is one of allowed.
func Contains(allowed []string, value string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}

// Record is a paper record in any shape, legacy or canonical.
// Decoded JSON yields map[string]any, so the schema is enforced by the
// migrator and validator rather than by the Go type system.
type Record map[string]any

// AsRecord returns v as a Record if it is a JSON object.
func AsRecord(v any) (Record, bool) {
	switch r := v.(type) {
	case Record:
		return r, r != nil
	case map[string]any:
		return Record(r), r != nil
	default:
		return nil, false
	}
}

// Has reports whether the field is present and non-null.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// String returns the field as a string, or "" if absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Truthy reports whether the field holds a value that counts as set:
// not absent, null, empty string, false or zero.
func (r Record) Truthy(field string) bool {
	return Truthy(r[field])
}

// Truthy reports whether v counts as a set value. Containers are always set,
// even when empty.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// TitleKey returns the title used for exact-duplicate detection.
func (r Record) TitleKey() string {
	return strings.TrimSpace(r.String(FieldTitle))
}

// URLKey returns the URL used for exact-duplicate detection.
func (r Record) URLKey() string {
	return strings.TrimSpace(r.String(FieldURL))
}

// IDString returns the record id in the form users type it on the command
// line: numbers without a fractional part print as integers.
func (r Record) IDString() string {
	switch id := r[FieldID].(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
