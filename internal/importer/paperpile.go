// Package importer converts reference-manager exports into raw paper
// records that the library migrates and validates like any other input.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/matsen/papershelf/internal/paper"
)

// ErrMalformed reports an export that is not a Paperpile JSON array.
var ErrMalformed = errors.New("malformed Paperpile export")

// FlexibleString can unmarshal from either string or number JSON values.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// PaperpileEntry is one entry of a Paperpile JSON export.
type PaperpileEntry struct {
	ID        string   `json:"_id"`
	Citekey   string   `json:"citekey"`
	PubType   string   `json:"pubtype"`
	DOI       string   `json:"doi"`
	URL       []string `json:"url"`
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Journal   string   `json:"journal"`
	Volume    string   `json:"volume"`
	Issue     string   `json:"number"`
	Pages     string   `json:"pages"`
	Publisher string   `json:"publisher"`
	Keywords  string   `json:"keywords"`
	Created   string   `json:"created"`
	Published struct {
		Year  FlexibleString `json:"year"`
		Month FlexibleString `json:"month"`
		Day   FlexibleString `json:"day"`
	} `json:"published"`
	Author []struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"author"`
	Attachments []struct {
		ArticlePDF int    `json:"article_pdf"` // 1 = main PDF, 0 = supplement
		Filename   string `json:"filename"`
	} `json:"attachments"`
}

// pubTypes maps Paperpile publication types to itemType values.
var pubTypes = map[string]string{
	"JOUR": "article",
	"CONF": "inproceedings",
	"BOOK": "book",
	"CHAP": "incollection",
	"THES": "phdthesis",
	"RPRT": "techreport",
	"PREP": "misc",
}

// ParsePaperpile parses a Paperpile JSON export into raw records. Entries
// that cannot be converted are reported by position and skipped.
func ParsePaperpile(data []byte) ([]any, []error) {
	var entries []PaperpileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, []error{fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	var records []any
	var errs []error

	for i, entry := range entries {
		rec, err := entryToRecord(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, entry.Citekey, err))
			continue
		}
		records = append(records, map[string]any(rec))
	}

	return records, errs
}

// entryToRecord converts an entry into the record shape of the current
// schema, leaving version stamping and defaults to migration.
func entryToRecord(entry PaperpileEntry) (paper.Record, error) {
	if entry.Title == "" {
		return nil, fmt.Errorf("missing required field 'title'")
	}

	rec := paper.Record{paper.FieldTitle: entry.Title}

	id := entry.Citekey
	if id == "" {
		id = entry.ID
	}
	if id != "" {
		rec[paper.FieldID] = id
	}

	if len(entry.Author) > 0 {
		authors := make([]any, 0, len(entry.Author))
		for _, a := range entry.Author {
			authors = append(authors, map[string]any{"firstName": a.First, "lastName": a.Last})
		}
		rec[paper.FieldAuthors] = authors
	}

	if year := entry.Published.Year.String(); year != "" {
		if _, err := strconv.Atoi(year); err != nil {
			return nil, fmt.Errorf("invalid year: %s", year)
		}
		rec[paper.FieldYear] = year
	}

	if t, ok := pubTypes[entry.PubType]; ok {
		rec[paper.FieldItemType] = t
	}
	if entry.Created != "" {
		rec[paper.FieldDateAdded] = entry.Created
	}
	if len(entry.URL) > 0 {
		rec[paper.FieldURL] = entry.URL[0]
	}

	for field, v := range map[string]string{
		paper.FieldDOI:      entry.DOI,
		paper.FieldAbstract: entry.Abstract,
		paper.FieldKeywords: entry.Keywords,
		"journal":           entry.Journal,
		"volume":            entry.Volume,
		"issue":             entry.Issue,
		"pages":             entry.Pages,
		"publisher":         entry.Publisher,
	} {
		if v != "" {
			rec[field] = v
		}
	}

	for _, att := range entry.Attachments {
		if att.ArticlePDF == 1 && att.Filename != "" {
			rec[paper.FieldPDFFilename] = att.Filename
			rec[paper.FieldPDFSource] = "paperpile"
			break
		}
	}

	return rec, nil
}
