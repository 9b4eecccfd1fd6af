package abi

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrorSelector tags revert payloads produced by require and revert with a message
	ErrorSelector = NewSelector("Error(string)")
	// PanicSelector tags revert payloads produced by failed assertions and checked arithmetic
	PanicSelector = NewSelector("Panic(uint256)")

	// ErrNoRevertReason is returned for revert payloads that carry neither
	// an Error(string) nor a Panic(uint256) reason
	ErrNoRevertReason = errors.New("no decodable revert reason")
)

var panicReasons = map[uint64]string{
	0x00: "generic panic",
	0x01: "assert(false)",
	0x11: "arithmetic underflow or overflow",
	0x12: "division or modulo by zero",
	0x21: "enum overflow",
	0x22: "invalid encoded storage byte array accessed",
	0x31: "out-of-bounds array access; popping on an empty array",
	0x32: "out-of-bounds access of an array or bytesN",
	0x41: "out of memory",
	0x51: "uninitialized function",
}

// RevertReason is a decoded revert payload. Exactly one of Message and
// PanicCode is meaningful.
type RevertReason struct {
	Message   string
	PanicCode *big.Int
}

// IsPanic returns true if the revert came from a Panic(uint256)
func (r *RevertReason) IsPanic() bool {
	return r.PanicCode != nil
}

func (r *RevertReason) String() string {
	if !r.IsPanic() {
		return r.Message
	}
	if r.PanicCode.IsUint64() {
		if desc, ok := panicReasons[r.PanicCode.Uint64()]; ok {
			return fmt.Sprintf("panic 0x%x (%s)", r.PanicCode, desc)
		}
	}
	return fmt.Sprintf("panic 0x%x", r.PanicCode)
}

// DecodeRevert decodes a revert payload. It returns ErrNoRevertReason when the
// payload is not tagged as Error(string) or Panic(uint256), and a
// MalformedPayloadError when the tagged payload is not well formed.
func DecodeRevert(data []byte) (*RevertReason, error) {
	if len(data) < SelectorLength {
		return nil, ErrNoRevertReason
	}
	tag, body := data[:SelectorLength], data[SelectorLength:]
	switch {
	case bytes.Equal(tag, ErrorSelector[:]):
		values, err := Decode([]Type{String}, body)
		if err != nil {
			return nil, err
		}
		return &RevertReason{Message: values[0].(string)}, nil
	case bytes.Equal(tag, PanicSelector[:]):
		values, err := Decode([]Type{Uint256}, body)
		if err != nil {
			return nil, err
		}
		return &RevertReason{PanicCode: values[0].(*big.Int)}, nil
	default:
		return nil, ErrNoRevertReason
	}
}

// EncodeRevert builds an Error(string) revert payload
func EncodeRevert(message string) []byte {
	// a string always encodes
	data, _ := EncodeCall(ErrorSelector, []Type{String}, message)
	return data
}
