package abi

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload is the sentinel matched by every MalformedPayloadError
var ErrMalformedPayload = errors.New("malformed abi payload")

// EncodeError is returned when a value can not be represented in the target type.
// Values are never truncated or wrapped around.
type EncodeError struct {
	Path   string
	Type   Type
	Reason string
}

// NewEncodeErrorf constructs a new EncodeError
func NewEncodeErrorf(path string, t Type, msg string, args ...interface{}) *EncodeError {
	return &EncodeError{
		Path:   path,
		Type:   t,
		Reason: fmt.Sprintf(msg, args...),
	}
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("can not encode %s as %s: %s", e.Path, e.Type, e.Reason)
}

// IsEncodeError returns true if the error or any underlying errors
// is of the type EncodeError
func IsEncodeError(err error) bool {
	var e *EncodeError
	return errors.As(err, &e)
}

// MalformedPayloadError is returned when a payload fails structural validation
// during decoding. No partial value is returned alongside it.
type MalformedPayloadError struct {
	Offset int
	Path   string
	Reason string
}

// NewMalformedPayloadErrorf constructs a new MalformedPayloadError
func NewMalformedPayloadErrorf(offset int, path string, msg string, args ...interface{}) *MalformedPayloadError {
	return &MalformedPayloadError{
		Offset: offset,
		Path:   path,
		Reason: fmt.Sprintf(msg, args...),
	}
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("%s at offset %d (%s): %s", ErrMalformedPayload, e.Offset, e.Path, e.Reason)
}

// Is lets errors.Is match ErrMalformedPayload
func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

// IsMalformedPayloadError returns true if the error or any underlying errors
// is of the type MalformedPayloadError
func IsMalformedPayloadError(err error) bool {
	return errors.Is(err, ErrMalformedPayload)
}
