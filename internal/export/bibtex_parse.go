package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/papershelf/internal/normalize"
	"github.com/matsen/papershelf/internal/paper"
)

var (
	entryHeader = regexp.MustCompile(`^\s*@(\w+)\s*\{\s*([^,\s]+)\s*,`)
	doiField    = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[{"]\s*([^}"]+?)\s*[}"]`)
)

// Index records which citation keys and DOIs a .bib file already holds, so
// an export can append only the papers it does not cite yet.
type Index struct {
	keys map[string]bool
	dois map[string]bool
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{keys: map[string]bool{}, dois: map[string]bool{}}
}

// Len is the number of entries indexed.
func (idx *Index) Len() int {
	return len(idx.keys)
}

// Add indexes an entry. doi may be empty.
func (idx *Index) Add(key, doi string) {
	idx.keys[key] = true
	if d := comparableDOI(doi); d != "" {
		idx.dois[d] = true
	}
}

// Cites reports whether rec is already in the index. A shared DOI is a
// match even when the citation keys differ.
func (idx *Index) Cites(rec paper.Record) bool {
	if d := comparableDOI(rec.String(paper.FieldDOI)); d != "" && idx.dois[d] {
		return true
	}
	return idx.keys[CitationKey(rec)]
}

// Missing returns the records the index does not cite, in order.
func (idx *Index) Missing(recs []paper.Record) []paper.Record {
	var out []paper.Record
	for _, rec := range recs {
		if !idx.Cites(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ReadIndex indexes the entries of a BibTeX document. Only the entry header
// and a doi field on its own line are recognized; @comment, @string and
// @preamble blocks are ignored.
func ReadIndex(r io.Reader) (*Index, error) {
	idx := NewIndex()

	var key, doi string
	flush := func() {
		if key != "" {
			idx.Add(key, doi)
		}
		key, doi = "", ""
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if m := entryHeader.FindStringSubmatch(line); m != nil {
			flush()
			switch strings.ToLower(m[1]) {
			case "comment", "string", "preamble":
			default:
				key = m[2]
			}
			continue
		}
		if m := doiField.FindStringSubmatch(line); m != nil && key != "" {
			doi = m[1]
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bibtex: %w", err)
	}
	return idx, nil
}

// ParseBibTeXFile indexes the .bib file at path. A missing file yields an
// empty index.
func ParseBibTeXFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewIndex(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadIndex(f)
}

// comparableDOI reduces a DOI in any accepted spelling to its lowercase
// suffix form. DOIs are case-insensitive.
func comparableDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(normalize.DOI(doi), paper.DOIPrefix))
}

// AppendToBibFile appends entries to the file at path, creating it if
// needed and separating them from existing content by a blank line.
func AppendToBibFile(path, entries string) error {
	info, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if info != nil && info.Size() > 0 {
		entries = "\n" + entries
	}
	if _, err := io.WriteString(f, entries); err != nil {
		return err
	}
	return nil
}
