package paper

import "strings"

// Person is a paper author. Authors are kept in citation order.
type Person struct {
	FullName  string `json:"fullName"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// DerivedFullName returns FullName, or "<FirstName> <LastName>" trimmed when
// FullName is empty.
func (p Person) DerivedFullName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PersonFromMap reads a Person from a decoded JSON object.
// Non-string name parts are ignored.
func PersonFromMap(m map[string]any) Person {
	first, _ := m["firstName"].(string)
	last, _ := m["lastName"].(string)
	full, _ := m["fullName"].(string)
	return Person{FullName: full, FirstName: first, LastName: last}
}
