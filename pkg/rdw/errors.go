package rdw

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports caller input rejected before any request is made.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound reports a single-plate lookup that matched no record.
	ErrNotFound = errors.New("examination record not found")
	// ErrFormat reports a response that does not have the expected shape or date layout.
	ErrFormat = errors.New("invalid format")
)

// FormatError describes a malformed value in a dataset response.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	switch {
	case e.Field == "" && e.Err != nil:
		return fmt.Sprintf("invalid format: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	default:
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFormat) match any *FormatError.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }
