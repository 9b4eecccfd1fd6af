package handler

import (
	"errors"
	"fmt"
	"strings"
)

// AssertionFailure is returned when the engine applied a message but the
// observed outcome diverges from the declared expectation. Expected and
// Actual carry the compared values as declared and as observed.
type AssertionFailure struct {
	Field    string
	Expected interface{}
	Actual   interface{}
	// Diff is a structural diff of decoded values, empty for scalar fields
	Diff string
	// Detail carries extra context such as a decoded revert reason
	Detail string
}

// NewAssertionFailure constructs a new AssertionFailure
func NewAssertionFailure(field string, expected, actual interface{}) *AssertionFailure {
	return &AssertionFailure{
		Field:    field,
		Expected: expected,
		Actual:   actual,
	}
}

func (e *AssertionFailure) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "assertion failed on %s: expected %v, actual %v", e.Field, e.Expected, e.Actual)
	if e.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", e.Detail)
	}
	if e.Diff != "" {
		fmt.Fprintf(&sb, "\n(-expected +actual):\n%s", e.Diff)
	}
	return sb.String()
}

// IsAssertionFailure returns true if the error or any underlying errors
// is of the type AssertionFailure
func IsAssertionFailure(err error) bool {
	var e *AssertionFailure
	return errors.As(err, &e)
}

// AsAssertionFailure returns the AssertionFailure in err's chain, if any
func AsAssertionFailure(err error) (*AssertionFailure, bool) {
	var e *AssertionFailure
	ok := errors.As(err, &e)
	return e, ok
}
