package domain

import (
	"errors"
	"fmt"
)

// ErrBadRequest is returned for a missing method, a missing required
// parameter, or a mutating method on the read transport.
var ErrBadRequest = errors.New("bad request")

// ErrMethodNotAllowed is returned when a mutating method arrives on the
// read transport. It also matches ErrBadRequest.
var ErrMethodNotAllowed = errors.New("method not allowed")

// ErrConfiguration is returned when a status addresses a nesting level that
// has no matching configuration (a stale or tampered hash).
var ErrConfiguration = errors.New("configuration error")

// ErrRecordNotFound is returned by repositories for unknown record ids.
var ErrRecordNotFound = errors.New("record not found")

// ErrGridNotFound is returned when no grid is registered under a name.
var ErrGridNotFound = errors.New("grid not found")

// BadRequestError describes why a call was rejected.
type BadRequestError struct {
	Reason string
	// Cause is an optional narrower sentinel such as ErrMethodNotAllowed.
	Cause error
}

func (e *BadRequestError) Error() string {
	return "bad request: " + e.Reason
}

// Is matches ErrBadRequest and the optional cause.
func (e *BadRequestError) Is(target error) bool {
	return target == ErrBadRequest || (e.Cause != nil && target == e.Cause)
}

// BadRequest builds a BadRequestError.
func BadRequest(format string, args ...any) error {
	return &BadRequestError{Reason: fmt.Sprintf(format, args...)}
}

// MethodNotAllowed builds the rejection for a mutating method on the read
// transport.
func MethodNotAllowed(m Method) error {
	return &BadRequestError{
		Reason: fmt.Sprintf("method %q requires the write transport", m),
		Cause:  ErrMethodNotAllowed,
	}
}

// ConfigurationError reports a nesting level with no matching child grid.
type ConfigurationError struct {
	Level  int
	GridID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error at level %d (grid %q): %s", e.Level, e.GridID, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// UserError carries a message that is safe to show to the person using the
// grid. Recovered failures show Message instead of a generic text.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// UserMessage returns the message of the first UserError in err's chain.
func UserMessage(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message, true
	}
	return "", false
}
