package domain

import (
	"fmt"
	"strings"
)

// Record is one row exchanged with a repository. Values are kept as
// strings, the way forms submit them.
type Record map[string]string

// Clone returns a copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Position places a moved record relative to its target.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// ParsePosition validates a raw beforeOrAfter value.
func ParsePosition(raw string) (Position, error) {
	switch Position(raw) {
	case Before, After:
		return Position(raw), nil
	}
	return "", BadRequest("beforeOrAfter must be %q or %q, got %q", Before, After, raw)
}

// Table describes where the records of one grid level live.
type Table struct {
	Name      string
	IDField   string
	SortField string
	// Scope restricts every operation to records matching these values.
	// Nested grids scope by their connection field.
	Scope map[string]string
}

func (t Table) String() string {
	if len(t.Scope) == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s%v", t.Name, t.Scope)
}

// Matches reports whether rec belongs to the table scope.
func (t Table) Matches(rec Record) bool {
	for k, v := range t.Scope {
		if rec[k] != v {
			return false
		}
	}
	return true
}

// Query selects a page of records. Filters match by case-insensitive
// substring.
type Query struct {
	Filters map[string]string
	Offset  int
	Limit   int
}

// Matches reports whether rec satisfies every filter.
func (q Query) Matches(rec Record) bool {
	for field, needle := range q.Filters {
		if needle == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(rec[field]), strings.ToLower(needle)) {
			return false
		}
	}
	return true
}

// Window returns the slice bounds of the requested page over n records.
func (q Query) Window(n int) (start, end int) {
	start = min(max(q.Offset, 0), n)
	end = n
	if q.Limit > 0 {
		end = min(start+q.Limit, n)
	}
	return start, end
}
