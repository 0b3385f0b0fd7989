package normalize

import (
	"strings"

	"github.com/matsen/papershelf/internal/paper"
)

// publicationTypes maps legacy free-text publication types to itemType.
var publicationTypes = map[string]string{
	"conference":       "inproceedings",
	"conference paper": "inproceedings",
	"book":             "book",
	"book chapter":     "inbook",
	"chapter":          "incollection",
	"thesis":           "phdthesis",
	"phd thesis":       "phdthesis",
	"dissertation":     "phdthesis",
	"masters thesis":   "mastersthesis",
	"report":           "techreport",
	"technical report": "techreport",
	"preprint":         "misc",
	"working paper":    "misc",
	"journal":          "article",
	"journal article":  "article",
	"article":          "article",
}

// ItemType maps a legacy publicationType to an itemType. Unknown or empty
// types map to article.
func ItemType(publicationType string) string {
	if t, ok := publicationTypes[strings.ToLower(strings.TrimSpace(publicationType))]; ok {
		return t
	}
	return paper.DefaultItemType
}
