package abi

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// SelectorLength is the number of call data bytes used for method dispatch
const SelectorLength = 4

// Selector is the 4 byte method tag derived from a canonical method signature
type Selector [SelectorLength]byte

// NewSelector computes the selector of a canonical signature such as
// "transfer(address,uint256)"
func NewSelector(signature string) Selector {
	var s Selector
	copy(s[:], crypto.Keccak256([]byte(signature))[:SelectorLength])
	return s
}

// SelectorFromHex parses a hex encoded selector, with or without 0x prefix
func SelectorFromHex(str string) (Selector, error) {
	var s Selector
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(str), "0x"))
	if err != nil {
		return s, fmt.Errorf("invalid selector %q: %w", str, err)
	}
	if len(b) != SelectorLength {
		return s, fmt.Errorf("invalid selector %q: expected %d bytes, got %d", str, SelectorLength, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// Bytes returns a copy of the selector bytes
func (s Selector) Bytes() []byte {
	return append([]byte{}, s[:]...)
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// EncodeCall returns the call data for selector and args: the selector
// followed by the tuple encoding of args. A call without arguments is exactly
// the 4 selector bytes.
func EncodeCall(selector Selector, ts []Type, args ...interface{}) ([]byte, error) {
	encoded, err := Encode(ts, args)
	if err != nil {
		return nil, err
	}
	return append(selector.Bytes(), encoded...), nil
}

// Method is a contract method with typed inputs and outputs
type Method struct {
	Name    string
	Inputs  []Type
	Outputs []Type
}

// NewMethod constructs a method
func NewMethod(name string, inputs []Type, outputs []Type) *Method {
	return &Method{
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
	}
}

// ParseMethod parses a human readable method declaration.
// Accepted forms are "name(T1,T2)", "name(T1,T2)(R1)" and
// "name(T1,T2) returns (R1)".
func ParseMethod(decl string) (*Method, error) {
	decl = strings.TrimSpace(decl)
	open := strings.IndexByte(decl, '(')
	if open <= 0 {
		return nil, fmt.Errorf("invalid method declaration %q: missing name or argument list", decl)
	}
	name := decl[:open]
	if !isIdentifier(name) {
		return nil, fmt.Errorf("invalid method declaration %q: invalid name %q", decl, name)
	}

	p := &typeParser{input: decl, pos: open}
	inputs, err := p.parseList()
	if err != nil {
		return nil, err
	}

	rest := strings.TrimSpace(decl[p.pos:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "returns"))
	outputs := make([]Type, 0)
	if rest != "" {
		op := &typeParser{input: rest}
		outputs, err = op.parseList()
		if err != nil {
			return nil, err
		}
		if !op.done() {
			return nil, op.errorf("unexpected trailing input")
		}
	}
	return NewMethod(name, inputs, outputs), nil
}

// MustParseMethod is ParseMethod that panics on error
func MustParseMethod(decl string) *Method {
	m, err := ParseMethod(decl)
	if err != nil {
		panic(err)
	}
	return m
}

func isIdentifier(name string) bool {
	for i, c := range name {
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return name != ""
}

// Signature returns the canonical signature used to derive the selector
func (m *Method) Signature() string {
	return m.Name + "(" + typeList(m.Inputs) + ")"
}

// Selector returns the method selector
func (m *Method) Selector() Selector {
	return NewSelector(m.Signature())
}

// EncodeCall encodes a call to the method
func (m *Method) EncodeCall(args ...interface{}) ([]byte, error) {
	return EncodeCall(m.Selector(), m.Inputs, args...)
}

// DecodeReturn decodes the method return payload
func (m *Method) DecodeReturn(data []byte) ([]interface{}, error) {
	return Decode(m.Outputs, data)
}

// EncodeReturn encodes values as the method return payload
func (m *Method) EncodeReturn(values ...interface{}) ([]byte, error) {
	return Encode(m.Outputs, values)
}

func (m *Method) String() string {
	if len(m.Outputs) == 0 {
		return m.Signature()
	}
	return m.Signature() + " returns (" + typeList(m.Outputs) + ")"
}
