// Package validate checks paper records against the canonical schema.
//
// Validation reports problems as data. It never mutates the record, never
// panics on malformed input and always reports every issue it finds.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/matsen/papershelf/internal/normalize"
	"github.com/matsen/papershelf/internal/paper"
)

var (
	strictDOI = regexp.MustCompile(`^https://doi\.org/10\.\d{4,}/\S+$`)
	yearRe    = regexp.MustCompile(`^\d{4}$`)
	langRe    = regexp.MustCompile(`^[a-z]{2}$`)
)

// isoLayouts are the date-time forms accepted for dateAdded.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04",
}

// Validator checks records against one schema version.
type Validator struct {
	version string
}

// New returns a Validator for version.
func New(version string) *Validator {
	return &Validator{version: version}
}

// Version returns the schema version records are checked against.
func (v *Validator) Version() string {
	return v.version
}

type checker struct {
	rec    paper.Record
	result Result
}

func (c *checker) fail(field, msg string, value any, suggestion string) {
	c.result.Errors = append(c.result.Errors, Issue{
		Field:      field,
		Message:    msg,
		Value:      value,
		Suggestion: suggestion,
		Severity:   SeverityError,
	})
}

func (c *checker) warn(field, msg string, value any, suggestion string) {
	c.result.Warnings = append(c.result.Warnings, Issue{
		Field:      field,
		Message:    msg,
		Value:      value,
		Suggestion: suggestion,
		Severity:   SeverityWarning,
	})
}

// Validate checks record and returns every error and warning found.
func (v *Validator) Validate(record any) Result {
	c := &checker{result: Result{
		Errors:        []Issue{},
		Warnings:      []Issue{},
		SchemaVersion: v.version,
	}}

	rec, ok := paper.AsRecord(record)
	if !ok {
		c.fail("record", "record must be a JSON object", nil, "")
		return c.result
	}
	c.rec = rec

	v.checkSchemaVersion(c)
	checkRequired(c)
	checkAuthors(c)
	checkDOI(c)
	checkYear(c)
	checkEnum(c, paper.FieldItemType, paper.ItemTypes)
	checkEnum(c, paper.FieldStatus, paper.Statuses)
	checkEnum(c, paper.FieldPriority, paper.Priorities)
	checkLanguage(c)
	checkRecommended(c)

	c.result.Valid = len(c.result.Errors) == 0
	return c.result
}

func (v *Validator) checkSchemaVersion(c *checker) {
	raw := c.rec[paper.FieldSchemaVersion]
	if !paper.Truthy(raw) {
		c.fail(paper.FieldSchemaVersion, "missing schema version", nil, "")
		return
	}
	version, ok := raw.(string)
	if !ok {
		c.fail(paper.FieldSchemaVersion, "schema version must be a string", raw, "")
		return
	}
	if version != v.version {
		c.warn(paper.FieldSchemaVersion,
			fmt.Sprintf("schema version %s differs from %s, record should be migrated", version, v.version),
			version, v.version)
	}
}

func checkRequired(c *checker) {
	if !c.rec.Has(paper.FieldID) {
		c.fail(paper.FieldID, "missing id", nil, "")
	}

	switch title := c.rec[paper.FieldTitle].(type) {
	case nil:
		c.fail(paper.FieldTitle, "missing title", nil, "")
	case string:
		if strings.TrimSpace(title) == "" {
			c.fail(paper.FieldTitle, "title must not be empty", title, "")
		}
	default:
		c.fail(paper.FieldTitle, "title must be a string", title, "")
	}

	raw := c.rec[paper.FieldDateAdded]
	if !paper.Truthy(raw) {
		c.fail(paper.FieldDateAdded, "missing dateAdded", nil, "")
		return
	}
	s, ok := raw.(string)
	if !ok || !isISODateTime(s) {
		c.fail(paper.FieldDateAdded, "dateAdded must be an ISO-8601 date-time", raw, dateSuggestion(raw))
	}
}

// dateSuggestion returns the normalized form of a non-ISO date, or "" when
// the value cannot be converted.
func dateSuggestion(raw any) string {
	var zero time.Time
	iso, fellBack := normalize.DateWithFallback(raw, zero)
	if fellBack || !isISODateTime(iso) {
		return ""
	}
	if s, ok := raw.(string); ok && s == iso {
		return ""
	}
	return iso
}

func isISODateTime(s string) bool {
	if !strings.Contains(s, "T") {
		return false
	}
	for _, layout := range isoLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func checkAuthors(c *checker) {
	raw := c.rec[paper.FieldAuthors]
	if !paper.Truthy(raw) {
		return
	}

	switch list := raw.(type) {
	case []paper.Person:
		for i, p := range list {
			if strings.TrimSpace(p.FullName) == "" {
				c.fail(fmt.Sprintf("authors[%d].fullName", i), "author must have a fullName", p, "")
			}
		}
	case []any:
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				c.fail(fmt.Sprintf("authors[%d]", i), "author must be an object", item, "")
				continue
			}
			if name, _ := m["fullName"].(string); strings.TrimSpace(name) == "" {
				c.fail(fmt.Sprintf("authors[%d].fullName", i), "author must have a fullName", item,
					paper.PersonFromMap(m).DerivedFullName())
			}
		}
	case []string:
		for i, name := range list {
			c.fail(fmt.Sprintf("authors[%d]", i), "author must be an object", name, "")
		}
	case []map[string]any:
		for i, m := range list {
			if name, _ := m["fullName"].(string); strings.TrimSpace(name) == "" {
				c.fail(fmt.Sprintf("authors[%d].fullName", i), "author must have a fullName", m,
					paper.PersonFromMap(m).DerivedFullName())
			}
		}
	default:
		c.fail(paper.FieldAuthors, "authors must be an array", raw, "")
	}
}

func checkDOI(c *checker) {
	raw := c.rec[paper.FieldDOI]
	if !paper.Truthy(raw) {
		return
	}
	doi, ok := raw.(string)
	if !ok {
		c.fail(paper.FieldDOI, "doi must be a string", raw, "")
		return
	}
	if !strings.HasPrefix(doi, paper.DOIPrefix) {
		c.fail(paper.FieldDOI, "doi must start with "+paper.DOIPrefix, doi, normalize.DOI(doi))
		return
	}
	if !strictDOI.MatchString(doi) {
		c.warn(paper.FieldDOI, "doi does not look like a registered DOI", doi, "")
	}
}

func checkYear(c *checker) {
	raw := c.rec[paper.FieldYear]
	if !paper.Truthy(raw) {
		return
	}
	if s, ok := raw.(string); ok && yearRe.MatchString(s) {
		return
	}
	c.fail(paper.FieldYear, "year must be a 4-digit string", raw, "")
}

func checkEnum(c *checker, field string, allowed []string) {
	raw := c.rec[field]
	if !paper.Truthy(raw) {
		return
	}
	if s, ok := raw.(string); ok && paper.Contains(allowed, s) {
		return
	}
	c.fail(field, fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")), raw, "")
}

func checkLanguage(c *checker) {
	raw := c.rec[paper.FieldLanguage]
	if !paper.Truthy(raw) {
		return
	}
	if s, ok := raw.(string); ok && langRe.MatchString(s) {
		return
	}
	c.warn(paper.FieldLanguage, "language should be a two-letter ISO 639-1 code", raw, "")
}

func checkRecommended(c *checker) {
	if !c.rec.Truthy(paper.FieldAuthors) {
		c.warn(paper.FieldAuthors, "no authors listed", nil, "")
	}
	if !c.rec.Truthy(paper.FieldYear) {
		c.warn(paper.FieldYear, "no publication year", nil, "")
	}
	if !c.rec.Truthy(paper.FieldAbstract) {
		c.warn(paper.FieldAbstract, "no abstract", nil, "")
	}
	if !hasKeywords(c.rec[paper.FieldKeywords]) {
		c.warn(paper.FieldKeywords, "no keywords", nil, "")
	}
}

func hasKeywords(v any) bool {
	switch k := v.(type) {
	case []string:
		return len(k) > 0
	case []any:
		return len(k) > 0
	default:
		return paper.Truthy(v)
	}
}
