package manager

import "strings"

// Matches reports whether query is a case-insensitive substring of the
// record's name or host. An empty query matches everything.
func Matches(query string, c Connection) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Host), q)
}

// Filter returns the records matching query, in input order. It does not
// rank or re-sort, and an empty query returns every record unchanged.
// Records are copied; mutating the result never touches the input.
func Filter(query string, records []Connection) []Connection {
	out := make([]Connection, 0, len(records))
	for _, c := range records {
		if Matches(query, c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// FilterIndices is Filter expressed as positions into records. UIs keep this
// as their searchable index over a List snapshot instead of copying records.
func FilterIndices(query string, records []Connection) []int {
	out := make([]int, 0, len(records))
	for i, c := range records {
		if Matches(query, c) {
			out = append(out, i)
		}
	}
	return out
}
