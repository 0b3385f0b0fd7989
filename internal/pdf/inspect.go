// Package pdf extracts identifying metadata from local PDF files.
package pdf

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// searchPages is how many leading pages are scanned; the DOI is usually on
// the first page.
const searchPages = 3

// Info is what Inspect learns about a PDF.
type Info struct {
	Pages int    `json:"pages"`
	DOI   string `json:"doi,omitempty"`
	Title string `json:"title,omitempty"`
}

// Inspect opens the PDF at path and returns its page count, the first DOI
// found in its leading pages and a best-effort title. A PDF without a DOI is
// not an error.
func Inspect(path string) (Info, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	return inspect(r), nil
}

// InspectReader is Inspect for an in-memory or already open PDF.
func InspectReader(r io.ReaderAt, size int64) (Info, error) {
	pr, err := pdf.NewReader(r, size)
	if err != nil {
		return Info{}, fmt.Errorf("reading pdf: %w", err)
	}
	return inspect(pr), nil
}

func inspect(r *pdf.Reader) Info {
	info := Info{Pages: r.NumPage()}

	maxPages := searchPages
	if info.Pages < maxPages {
		maxPages = info.Pages
	}

	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if i == 1 {
			info.Title = titleFromText(text)
		}
		if info.DOI == "" {
			info.DOI = findDOI(text)
		}
		if info.DOI != "" && info.Title != "" {
			break
		}
	}

	return info
}

// titleFromText returns the first substantial line of a page, which is
// usually the title.
func titleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		// Skip short lines, headers, etc.
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

// findDOI finds a DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		// Remove trailing punctuation
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}

// isHeaderLine checks if a line is likely a header/footer.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"):
		return true
	case strings.Contains(lower, "volume") && strings.Contains(lower, "issue"):
		return true
	case strings.Contains(lower, "copyright"):
		return true
	case strings.Contains(lower, "article") && strings.Contains(lower, "published"):
		return true
	}
	return false
}
