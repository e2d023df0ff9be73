package status

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Status is the decoded form of a grid hash: an ordered, flat mapping of
// status variables. The zero value is an empty status (the root grid with
// no pagination or filters).
//
// Status values are immutable. With and Without return modified copies and
// never touch the receiver, so a decoded status can be shared safely between
// a handler and the collaborators it calls.
type Status struct {
	vars *orderedmap.OrderedMap[string, string]
}

// FromPairs builds a status from alternating keys and values, in order.
// A trailing key without a value is ignored.
func FromPairs(kv ...string) Status {
	var s Status
	for i := 0; i+1 < len(kv); i += 2 {
		s = s.With(kv[i], kv[i+1])
	}
	return s
}

// Len returns the number of variables set.
func (s Status) Len() int {
	if s.vars == nil {
		return 0
	}
	return s.vars.Len()
}

// Get returns the value stored under key.
func (s Status) Get(key string) (string, bool) {
	if s.vars == nil {
		return "", false
	}
	return s.vars.Get(key)
}

// Value returns the value stored under key, or "" when absent.
func (s Status) Value(key string) string {
	v, _ := s.Get(key)
	return v
}

// Has reports whether key is set.
func (s Status) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the variable names in insertion order.
func (s Status) Keys() []string {
	keys := make([]string, 0, s.Len())
	s.Range(func(key, _ string) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Range calls fn for every variable in insertion order until fn returns false.
func (s Status) Range(fn func(key, value string) bool) {
	if s.vars == nil {
		return
	}
	for pair := s.vars.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// With returns a copy of s where key is set to value. An existing key keeps
// its position; a new key is appended.
func (s Status) With(key, value string) Status {
	next := s.clone()
	next.vars.Set(key, value)
	return next
}

// Without returns a copy of s without the given keys.
func (s Status) Without(keys ...string) Status {
	next := s.clone()
	for _, key := range keys {
		next.vars.Delete(key)
	}
	return next
}

// Equal reports whether both statuses hold the same variables in the same order.
func (s Status) Equal(other Status) bool {
	if s.Len() != other.Len() {
		return false
	}
	a, b := s.Keys(), other.Keys()
	for i := range a {
		if a[i] != b[i] || s.Value(a[i]) != other.Value(b[i]) {
			return false
		}
	}
	return true
}

// Map returns the variables as a plain map. Ordering is lost.
func (s Status) Map() map[string]string {
	out := make(map[string]string, s.Len())
	s.Range(func(key, value string) bool {
		out[key] = value
		return true
	})
	return out
}

// String returns the encoded hash.
func (s Status) String() string {
	return Encode(s)
}

// MarshalJSON encodes the status as a JSON object, keeping variable order.
func (s Status) MarshalJSON() ([]byte, error) {
	if s.vars == nil {
		return []byte("{}"), nil
	}
	return s.vars.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object of string values, keeping key order.
func (s *Status) UnmarshalJSON(data []byte) error {
	vars := orderedmap.New[string, string]()
	if err := vars.UnmarshalJSON(data); err != nil {
		return err
	}
	s.vars = vars
	return nil
}

func (s Status) clone() Status {
	vars := orderedmap.New[string, string]()
	s.Range(func(key, value string) bool {
		vars.Set(key, value)
		return true
	})
	return Status{vars: vars}
}
