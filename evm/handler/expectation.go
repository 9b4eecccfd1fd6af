package handler

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/onflow/evm-call-harness/evm/abi"
	"github.com/onflow/evm-call-harness/evm/types"
)

// bigIntComparer compares decoded integers by value
var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})

// Expectation is the declared outcome of a call: an exit code and at most one
// check on the return payload. Expectations are values; the With* methods
// return modified copies.
type Expectation struct {
	exitCode types.ExitCode

	returnTypes  []abi.Type
	returnValues []interface{}
	rawReturn    []byte
	revertReason *string
	unparsed     bool

	err error
}

// ExpectSuccess expects a zero exit code and does not look at the return data
func ExpectSuccess() Expectation {
	return Expectation{exitCode: types.ExitOk}
}

// ExpectExit expects the given exit code and does not look at the return data
func ExpectExit(code types.ExitCode) Expectation {
	return Expectation{exitCode: code}
}

// ExitCode returns the expected exit code
func (e Expectation) ExitCode() types.ExitCode {
	return e.exitCode
}

// WithReturn additionally expects the return payload to decode as ts into
// values. Values are normalized into their decoded form up front, so a value
// that can not be encoded as its type surfaces from Validate.
func (e Expectation) WithReturn(ts []abi.Type, values ...interface{}) Expectation {
	e = e.reset()
	e.returnTypes = ts
	e.returnValues, e.err = abi.Normalize(ts, values)
	return e
}

// WithRawReturn additionally expects the exact return payload
func (e Expectation) WithRawReturn(data []byte) Expectation {
	e = e.reset()
	e.rawReturn = append([]byte{}, data...)
	return e
}

// WithRevertReason additionally expects an Error(string) revert payload
// carrying message
func (e Expectation) WithRevertReason(message string) Expectation {
	e = e.reset()
	e.revertReason = &message
	return e
}

// WithUnparsedReturn marks the return payload as intentionally not decoded.
// Only the exit code is asserted; the raw payload is still recorded.
func (e Expectation) WithUnparsedReturn() Expectation {
	e = e.reset()
	e.unparsed = true
	return e
}

func (e Expectation) reset() Expectation {
	return Expectation{exitCode: e.exitCode}
}

// Unparsed returns true if the return payload is deliberately not checked
func (e Expectation) Unparsed() bool {
	return e.unparsed
}

// Validate returns an error if the expectation can not be checked
func (e Expectation) Validate() error {
	if e.err != nil {
		return fmt.Errorf("invalid expected return value: %w", e.err)
	}
	if e.revertReason != nil && e.exitCode.IsSuccess() {
		return errors.New("a revert reason can only be expected together with a non-zero exit code")
	}
	return nil
}

// String renders the expectation for reports
func (e Expectation) String() string {
	var sb strings.Builder
	sb.WriteString("exit ")
	sb.WriteString(e.exitCode.String())
	switch {
	case e.returnTypes != nil:
		fmt.Fprintf(&sb, ", return %s", abi.FormatValue(e.returnValues))
	case e.rawReturn != nil:
		fmt.Fprintf(&sb, ", return data %s", abi.FormatValue(e.rawReturn))
	case e.revertReason != nil:
		fmt.Fprintf(&sb, ", revert %q", *e.revertReason)
	case e.unparsed:
		sb.WriteString(", return unparsed")
	}
	return sb.String()
}

// Check compares an execution result against the expectation. It returns an
// AssertionFailure on divergence and a MalformedPayloadError when an
// expected return value can not be compared because the payload does not
// decode.
func (e Expectation) Check(result *ExecutionResult) error {
	if err := e.Validate(); err != nil {
		return err
	}

	if result.ExitCode != e.exitCode {
		failure := NewAssertionFailure("exit code", e.exitCode, result.ExitCode)
		if reason, err := abi.DecodeRevert(result.ReturnData); err == nil {
			failure.Detail = "revert: " + reason.String()
		}
		return failure
	}

	switch {
	case e.returnTypes != nil:
		values, err := abi.Decode(e.returnTypes, result.ReturnData)
		if err != nil {
			return fmt.Errorf("could not decode return payload: %w", err)
		}
		result.Values = values
		if diff := cmp.Diff(e.returnValues, values, bigIntComparer); diff != "" {
			failure := NewAssertionFailure("return value", abi.FormatValue(e.returnValues), abi.FormatValue(values))
			failure.Diff = diff
			return failure
		}

	case e.rawReturn != nil:
		if !bytes.Equal(e.rawReturn, result.ReturnData) {
			return NewAssertionFailure("return data", abi.FormatValue(e.rawReturn), abi.FormatValue(result.ReturnData))
		}

	case e.revertReason != nil:
		reason, err := abi.DecodeRevert(result.ReturnData)
		if errors.Is(err, abi.ErrNoRevertReason) {
			return NewAssertionFailure("revert reason", *e.revertReason, abi.FormatValue(result.ReturnData))
		}
		if err != nil {
			return fmt.Errorf("could not decode revert payload: %w", err)
		}
		if reason.IsPanic() || reason.Message != *e.revertReason {
			return NewAssertionFailure("revert reason", *e.revertReason, reason.String())
		}
	}

	return nil
}
