package scpi

import (
	"errors"
	"strconv"
	"strings"
)

// ErrDecode is matched by every decode fault, see DecodeError.
var ErrDecode = errors.New("scpi: decode failed")

// DecodeError reports wire text that does not match the expected grammar.
type DecodeError struct {
	// Expected is the literal or grammar element that was expected.
	Expected string
	// Remaining is the unmatched input at the failure position.
	Remaining string
	// Reason optionally describes the failure.
	Reason string
	// Err is the underlying parse error, if any.
	Err error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("scpi: ")
	if e.Reason != "" {
		sb.WriteString(e.Reason)
		sb.WriteString(": ")
	}
	sb.WriteString("expected ")
	sb.WriteString(strconv.Quote(e.Expected))
	sb.WriteString(", remaining ")
	sb.WriteString(strconv.Quote(e.Remaining))
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NewDecodeError creates a DecodeError positioned at the cursor's remaining input.
func NewDecodeError(c *Cursor, expected string, reason string) *DecodeError {
	return &DecodeError{Expected: expected, Remaining: c.Remaining(), Reason: reason}
}
