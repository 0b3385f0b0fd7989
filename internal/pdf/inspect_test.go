package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "see doi 10.1038/nature12373 for details", "10.1038/nature12373"},
		{"trailing punctuation", "(10.1000/xyz123).", "10.1000/xyz123"},
		{"resolver url", "https://doi.org/10.1101/2020.01.01.123456", "10.1101/2020.01.01.123456"},
		{"first wins", "10.1234/first and 10.5678/second", "10.1234/first"},
		{"short registrant", "10.12/abc", ""},
		{"none", "no identifiers here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findDOI(tt.text); got != tt.want {
				t.Errorf("findDOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTitleFromText(t *testing.T) {
	text := strings.Join([]string{
		"arXiv",
		"Journal of Computational Biology, Volume 3",
		"Bayesian phylogenetic inference at scale",
		"Jane Smith",
	}, "\n")

	if got := titleFromText(text); got != "Bayesian phylogenetic inference at scale" {
		t.Errorf("titleFromText() = %q", got)
	}
	if got := titleFromText("short\nlines"); got != "" {
		t.Errorf("titleFromText() = %q, want empty", got)
	}
}

func TestIsHeaderLine(t *testing.T) {
	if !isHeaderLine("Copyright 2024 The Authors") {
		t.Error("copyright line should be a header")
	}
	if !isHeaderLine("Volume 12, Issue 4") {
		t.Error("volume/issue line should be a header")
	}
	if isHeaderLine("Deep learning for tree inference") {
		t.Error("title should not be a header")
	}
}

func TestInspect_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("plain text, not a pdf"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Inspect(path); err == nil {
		t.Error("Inspect() expected error for non-PDF file")
	}
	if _, err := Inspect(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("Inspect() expected error for missing file")
	}
}

func TestInspectReader_NotAPDF(t *testing.T) {
	data := strings.NewReader("%PDF-garbage")
	if _, err := InspectReader(data, int64(data.Len())); err == nil {
		t.Error("InspectReader() expected error for truncated PDF")
	}
}
