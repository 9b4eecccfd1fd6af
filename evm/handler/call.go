package handler

import (
	"fmt"
	"math/big"

	"github.com/onflow/evm-call-harness/evm/abi"
	"github.com/onflow/evm-call-harness/evm/types"
)

// CallSpec describes one contract call and its expected outcome. It is
// immutable once constructed.
type CallSpec struct {
	target   types.Identity
	selector *abi.Selector
	args     []byte
	value    *big.Int
	expect   Expectation
}

// NewCallSpec encodes args for method and builds a call against target.
// An argument that does not fit its type is reported as an abi.EncodeError.
func NewCallSpec(
	target types.Identity,
	method *abi.Method,
	value *big.Int,
	expect Expectation,
	args ...interface{},
) (*CallSpec, error) {
	encoded, err := abi.Encode(method.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("could not encode arguments of %s: %w", method.Signature(), err)
	}
	selector := method.Selector()
	return newCallSpec(target, &selector, encoded, value, expect), nil
}

// NewSelectorCallSpec builds a call from a selector and an already encoded
// argument payload
func NewSelectorCallSpec(
	target types.Identity,
	selector abi.Selector,
	args []byte,
	value *big.Int,
	expect Expectation,
) *CallSpec {
	return newCallSpec(target, &selector, args, value, expect)
}

// NewRawCallSpec builds a call whose call data is sent as is, without a
// selector (fallback and receive functions)
func NewRawCallSpec(
	target types.Identity,
	callData []byte,
	value *big.Int,
	expect Expectation,
) *CallSpec {
	return newCallSpec(target, nil, callData, value, expect)
}

func newCallSpec(
	target types.Identity,
	selector *abi.Selector,
	args []byte,
	value *big.Int,
	expect Expectation,
) *CallSpec {
	v := new(big.Int)
	if value != nil {
		v.Set(value)
	}
	return &CallSpec{
		target:   target,
		selector: selector,
		args:     append([]byte{}, args...),
		value:    v,
		expect:   expect,
	}
}

// Target returns the called contract
func (c *CallSpec) Target() types.Identity {
	return c.target
}

// Value returns a copy of the value attached to the call
func (c *CallSpec) Value() *big.Int {
	return new(big.Int).Set(c.value)
}

// Expect returns the expected outcome
func (c *CallSpec) Expect() Expectation {
	return c.expect
}

// CallData returns the selector followed by the argument payload
func (c *CallSpec) CallData() []byte {
	if c.selector == nil {
		return append([]byte{}, c.args...)
	}
	data := make([]byte, 0, abi.SelectorLength+len(c.args))
	data = append(data, c.selector[:]...)
	return append(data, c.args...)
}

func (c *CallSpec) String() string {
	sel := "<raw>"
	if c.selector != nil {
		sel = c.selector.String()
	}
	return fmt.Sprintf("call{to: %s, selector: %s, args: %d bytes, value: %s}", c.target, sel, len(c.args), c.value)
}

// ExecutionResult is the outcome of an applied message
type ExecutionResult struct {
	ExitCode types.ExitCode
	// ReturnData is the raw return payload with the envelope removed
	ReturnData []byte
	GasUsed    uint64
	// Sequence is the sequence number the message consumed
	Sequence uint64
	// Values holds the decoded return values when the expectation declared
	// return types
	Values []interface{}
}
