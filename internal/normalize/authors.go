// Package normalize converts legacy representations of paper fields into
// their canonical form. Every function is pure and safe for concurrent use.
package normalize

import (
	"regexp"
	"strings"

	"github.com/matsen/papershelf/internal/paper"
)

// authorSeparator splits a delimited author string on ";", ", and" or a
// standalone "and".
var authorSeparator = regexp.MustCompile(`(?i);\s*|,\s*and\s+|\s+and\s+`)

// Authors converts any known author representation into a Person list.
//
// Recognized shapes:
//   - a list of Person-shaped objects: fullName is derived from first/last
//     where missing, and entries without a derivable fullName are dropped
//   - a list of name strings: each is parsed with ParseName
//   - a single string delimited by ";", ", and" or " and "
//
// Anything else, including nil, yields an empty list.
func Authors(input any) []paper.Person {
	switch v := input.(type) {
	case []paper.Person:
		return repairPersons(v)
	case []map[string]any:
		persons := make([]paper.Person, 0, len(v))
		for _, m := range v {
			if m != nil {
				persons = append(persons, paper.PersonFromMap(m))
			}
		}
		return repairPersons(persons)
	case []string:
		return parseNames(v)
	case []any:
		return authorsFromList(v)
	case string:
		return parseNames(authorSeparator.Split(v, -1))
	default:
		return []paper.Person{}
	}
}

// authorsFromList dispatches on the first element, matching how lists were
// written by earlier versions: either all objects or all strings.
func authorsFromList(list []any) []paper.Person {
	if len(list) == 0 {
		return []paper.Person{}
	}

	if _, isObject := list[0].(map[string]any); isObject {
		persons := make([]paper.Person, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				persons = append(persons, paper.PersonFromMap(m))
			}
		}
		return repairPersons(persons)
	}

	names := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			names = append(names, s)
		}
	}
	return parseNames(names)
}

// repairPersons returns new Person values with fullName filled in, dropping
// any without a derivable name.
func repairPersons(in []paper.Person) []paper.Person {
	out := make([]paper.Person, 0, len(in))
	for _, p := range in {
		p.FullName = p.DerivedFullName()
		if p.FullName == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseNames(names []string) []paper.Person {
	out := make([]paper.Person, 0, len(names))
	for _, name := range names {
		if p, ok := ParseName(name); ok {
			out = append(out, p)
		}
	}
	return out
}

// ParseName parses a single author token.
//
//	"Doe, John"         -> John Doe (first John, last Doe)
//	"John Doe"          -> first John, last Doe
//	"John Q. Doe"       -> first John, last Doe, full name kept whole
//	"UNESCO"            -> last name only
//
// It returns false for blank input.
func ParseName(token string) (paper.Person, bool) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return paper.Person{}, false
	}

	if strings.Contains(trimmed, ",") {
		parts := strings.Split(trimmed, ",")
		last := strings.TrimSpace(parts[0])
		first := strings.TrimSpace(parts[1])
		full := strings.TrimSpace(first + " " + last)
		if full == "" {
			return paper.Person{}, false
		}
		return paper.Person{FullName: full, FirstName: first, LastName: last}, true
	}

	words := strings.Fields(trimmed)
	switch len(words) {
	case 1:
		return paper.Person{FullName: trimmed, LastName: trimmed}, true
	case 2:
		return paper.Person{FullName: trimmed, FirstName: words[0], LastName: words[1]}, true
	default:
		return paper.Person{FullName: trimmed, FirstName: words[0], LastName: words[len(words)-1]}, true
	}
}
