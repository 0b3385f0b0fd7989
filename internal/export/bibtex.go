// Package export renders canonical paper records in citation formats.
package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/papershelf/internal/normalize"
	"github.com/matsen/papershelf/internal/paper"
)

var keyUnsafe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// ToBibTeX converts a migrated record to a BibTeX entry. The entry type is
// the record's itemType.
func ToBibTeX(rec paper.Record) string {
	entryType := rec.String(paper.FieldItemType)
	if !paper.Contains(paper.ItemTypes, entryType) {
		entryType = paper.DefaultItemType
	}
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, CitationKey(rec)))

	authors := normalize.Authors(rec[paper.FieldAuthors])
	if len(authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(rec.String(paper.FieldTitle))))

	// Venue
	if venue := rec.String("journal"); venue != "" {
		fieldName := "journal"
		switch entryType {
		case "inproceedings", "incollection", "inbook":
			fieldName = "booktitle"
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", fieldName, escapeLatex(venue)))
	}

	writeField(&b, "year", rec.String(paper.FieldYear))
	writeField(&b, "volume", stringish(rec["volume"]))
	writeField(&b, "number", stringish(rec["issue"]))
	writeField(&b, "pages", stringish(rec["pages"]))
	writeField(&b, "chapter", stringish(rec["chapter"]))
	writeField(&b, "publisher", escapeLatex(rec.String("publisher")))
	writeField(&b, "isbn", rec.String("isbn"))
	writeField(&b, "issn", rec.String("issn"))

	if doi := rec.String(paper.FieldDOI); doi != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", strings.TrimPrefix(doi, paper.DOIPrefix)))
	}
	writeField(&b, "url", rec.String(paper.FieldURL))

	if kw := normalize.Keywords(rec[paper.FieldKeywords]); len(kw) > 0 {
		b.WriteString(fmt.Sprintf("  keywords = {%s},\n", escapeLatex(strings.Join(kw, ", "))))
	}

	// Abstract (optional, if present)
	if abstract := rec.String(paper.FieldAbstract); abstract != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(abstract)))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple records to BibTeX format.
func ToBibTeXList(recs []paper.Record) string {
	var entries []string
	for _, rec := range recs {
		entries = append(entries, ToBibTeX(rec))
	}
	return strings.Join(entries, "\n")
}

// CitationKey derives a key like "Smith2024" from the first author's last
// name and the year, falling back to the record id.
func CitationKey(rec paper.Record) string {
	var last string
	if authors := normalize.Authors(rec[paper.FieldAuthors]); len(authors) > 0 {
		last = authors[0].LastName
		if last == "" {
			last = authors[0].FullName
		}
	}
	last = keyUnsafe.ReplaceAllString(last, "")

	if last != "" {
		return last + rec.String(paper.FieldYear)
	}
	if id := keyUnsafe.ReplaceAllString(rec.IDString(), "-"); id != "" {
		return id
	}
	return "paper"
}

func writeField(b *strings.Builder, name, value string) {
	if value != "" {
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, value))
	}
}

// stringish renders string or numeric field values; anything else is empty.
func stringish(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, int, int64:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First"
func formatAuthors(authors []paper.Person) string {
	var formatted []string
	for _, a := range authors {
		if a.FirstName != "" && a.LastName != "" {
			formatted = append(formatted, fmt.Sprintf("%s, %s", a.LastName, a.FirstName))
		} else {
			formatted = append(formatted, a.FullName)
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Replacement is single-pass, so inserted braces are not escaped again
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
