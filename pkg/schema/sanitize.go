package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxValueSize bounds a single submitted value (64KB).
const DefaultMaxValueSize = 64 << 10

var (
	ErrValueTooLarge = errors.New("value exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("value contains invalid UTF-8 sequences")
)

// Sanitize rejects values over limit bytes or with invalid UTF-8 and strips
// control characters other than newline, tab and carriage return.
func Sanitize(value string, limit int) (string, error) {
	if limit > 0 && len(value) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrValueTooLarge, len(value), limit)
	}
	if !utf8.ValidString(value) {
		return "", ErrInvalidUTF8
	}

	// Fast path: nothing to strip.
	clean := true
	for _, r := range value {
		if unsafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return value, nil
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// SanitizeAll sanitizes every value in place, naming the offending key on
// failure.
func SanitizeAll(values map[string]string, limit int) error {
	for k, v := range values {
		clean, err := Sanitize(v, limit)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		values[k] = clean
	}
	return nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
