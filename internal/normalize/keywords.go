package normalize

import (
	"regexp"
	"strings"
)

var keywordSeparator = regexp.MustCompile(`[;,]\s*`)

// Keywords converts a keyword list or a ";"/","-delimited string into a list
// of non-empty keywords. Order is kept; duplicates are not removed.
func Keywords(input any) []string {
	switch v := input.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, k := range v {
			if strings.TrimSpace(k) != "" {
				out = append(out, k)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if k, ok := item.(string); ok && strings.TrimSpace(k) != "" {
				out = append(out, k)
			}
		}
		return out
	case string:
		out := []string{}
		for _, k := range keywordSeparator.Split(v, -1) {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
		return out
	default:
		return []string{}
	}
}
