package status

import (
	"net/url"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Key families of the status variables.
const (
	gridIDPrefix   = "gridId"
	parentIDPrefix = "gridParentId"
	searchPrefix   = "s_"

	// DefaultPageKey is the page variable of the root grid.
	DefaultPageKey = "page"
)

// Encode serializes s into a hash: query-escaped "key=value" pairs joined by
// '&', in insertion order. The result is safe to use as a URL fragment.
func Encode(s Status) string {
	if s.Len() == 0 {
		return ""
	}
	var b strings.Builder
	s.Range(func(key, value string) bool {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
		return true
	})
	return b.String()
}

// Decode parses a hash produced by Encode. A leading '#' is ignored.
// Empty or malformed input yields an empty status: a missing state is a
// valid state (the root grid, first page, no filters).
func Decode(hash string) Status {
	hash = strings.TrimPrefix(hash, "#")
	if hash == "" {
		return Status{}
	}

	vars := orderedmap.New[string, string]()
	for _, segment := range strings.Split(hash, "&") {
		if segment == "" {
			continue
		}
		rawKey, rawValue, ok := strings.Cut(segment, "=")
		if !ok {
			return Status{}
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			return Status{}
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return Status{}
		}
		vars.Set(key, value)
	}
	if vars.Len() == 0 {
		return Status{}
	}
	return Status{vars: vars}
}

// Depth returns the number of contiguous nesting levels addressed by s,
// counting from level 1. A level exists when both its gridId and
// gridParentId variables are non-empty. The root grid has depth 0.
func Depth(s Status) int {
	depth := 0
	for {
		next := depth + 1
		if s.Value(GridIDKey(next)) == "" || s.Value(ParentIDKey(next)) == "" {
			return depth
		}
		depth = next
	}
}

// Level returns the grid id and parent record id stored for level n.
func Level(s Status, n int) (gridID, parentID string) {
	return s.Value(GridIDKey(n)), s.Value(ParentIDKey(n))
}

// Truncate returns a new status holding only the identity variables of
// levels 1..depth. Pages and filters are dropped.
func Truncate(s Status, depth int) Status {
	var out Status
	for n := 1; n <= depth; n++ {
		gridID, parentID := Level(s, n)
		out = out.With(GridIDKey(n), gridID).With(ParentIDKey(n), parentID)
	}
	return out
}

// GridIDKey returns the variable naming the grid at level n.
func GridIDKey(n int) string {
	return gridIDPrefix + strconv.Itoa(n)
}

// ParentIDKey returns the variable naming the parent record of level n.
func ParentIDKey(n int) string {
	return parentIDPrefix + strconv.Itoa(n)
}

// PageKey returns the default page variable for a grid at the given depth.
func PageKey(depth int) string {
	if depth <= 0 {
		return DefaultPageKey
	}
	return DefaultPageKey + strconv.Itoa(depth)
}

// SearchKey returns the variable holding the search filter for field.
func SearchKey(field string) string {
	return searchPrefix + field
}

// Filters returns the active search filters keyed by field name.
func Filters(s Status) map[string]string {
	filters := make(map[string]string)
	s.Range(func(key, value string) bool {
		if field, ok := strings.CutPrefix(key, searchPrefix); ok && field != "" && value != "" {
			filters[field] = value
		}
		return true
	})
	return filters
}
