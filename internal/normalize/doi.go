package normalize

import (
	"regexp"
	"strings"

	"github.com/matsen/papershelf/internal/paper"
)

var (
	doiSchemePrefix   = regexp.MustCompile(`(?i)^doi:`)
	doiResolverPrefix = regexp.MustCompile(`^https?://(dx\.)?doi\.org/`)
)

// DOI canonicalizes a DOI to the https://doi.org/ form. It is best effort:
// malformed suffixes are passed through for the validator to flag.
func DOI(doi string) string {
	if doi == "" {
		return ""
	}
	if strings.HasPrefix(doi, paper.DOIPrefix) {
		return doi
	}

	doi = strings.TrimSpace(doiSchemePrefix.ReplaceAllString(doi, ""))
	doi = doiResolverPrefix.ReplaceAllString(doi, "")
	doi = strings.TrimPrefix(doi, "doi.org/")

	return paper.DOIPrefix + doi
}
