package abi

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WordSize is the size of an encoded abi word
const WordSize = 32

// MaxArrayHeadSize bounds the bytes a fixed array declaration may occupy in
// the head of its tuple
const MaxArrayHeadSize = math.MaxInt32

// Kind is the semantic kind of an abi type
type Kind uint8

const (
	UintKind Kind = iota
	IntKind
	AddressKind
	BoolKind
	FixedBytesKind
	BytesKind
	StringKind
	SliceKind
	ArrayKind
	TupleKind
)

// Type describes an abi type.
//
// Size is the bit size for integers, the byte length for fixed bytes and the
// element count for fixed arrays.
type Type struct {
	Kind       Kind
	Size       int
	Elem       *Type
	Components []Type
}

var (
	Uint8   = Uint(8)
	Uint32  = Uint(32)
	Uint64  = Uint(64)
	Uint256 = Uint(256)
	Int256  = Int(256)
	Address = Type{Kind: AddressKind}
	Bool    = Type{Kind: BoolKind}
	Bytes   = Type{Kind: BytesKind}
	String  = Type{Kind: StringKind}
	Bytes32 = FixedBytes(32)
)

// Uint returns the uint<bits> type
func Uint(bits int) Type {
	return Type{Kind: UintKind, Size: bits}
}

// Int returns the int<bits> type
func Int(bits int) Type {
	return Type{Kind: IntKind, Size: bits}
}

// FixedBytes returns the bytes<n> type
func FixedBytes(n int) Type {
	return Type{Kind: FixedBytesKind, Size: n}
}

// SliceOf returns the T[] type
func SliceOf(elem Type) Type {
	return Type{Kind: SliceKind, Elem: &elem}
}

// ArrayOf returns the T[n] type
func ArrayOf(elem Type, n int) Type {
	return Type{Kind: ArrayKind, Elem: &elem, Size: n}
}

// TupleOf returns the (T1,...,Tn) type
func TupleOf(components ...Type) Type {
	return Type{Kind: TupleKind, Components: components}
}

// String returns the canonical name of the type, as used in method signatures
func (t Type) String() string {
	switch t.Kind {
	case UintKind:
		return fmt.Sprintf("uint%d", t.Size)
	case IntKind:
		return fmt.Sprintf("int%d", t.Size)
	case AddressKind:
		return "address"
	case BoolKind:
		return "bool"
	case FixedBytesKind:
		return fmt.Sprintf("bytes%d", t.Size)
	case BytesKind:
		return "bytes"
	case StringKind:
		return "string"
	case SliceKind:
		return t.Elem.String() + "[]"
	case ArrayKind:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Size)
	case TupleKind:
		return "(" + typeList(t.Components) + ")"
	default:
		return fmt.Sprintf("unknown(%d)", t.Kind)
	}
}

func typeList(ts []Type) string {
	names := make([]string, len(ts))
	for i, c := range ts {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// IsDynamic returns true if values of the type are encoded in the tail
func (t Type) IsDynamic() bool {
	switch t.Kind {
	case BytesKind, StringKind, SliceKind:
		return true
	case ArrayKind:
		return t.Elem.IsDynamic()
	case TupleKind:
		for _, c := range t.Components {
			if c.IsDynamic() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// headSize returns the number of bytes the type occupies in the head of its
// enclosing tuple
func (t Type) headSize() int {
	if t.IsDynamic() {
		return WordSize
	}
	switch t.Kind {
	case ArrayKind:
		return t.Size * t.Elem.headSize()
	case TupleKind:
		return tupleHeadSize(t.Components)
	default:
		return WordSize
	}
}

func tupleHeadSize(ts []Type) int {
	size := 0
	for _, c := range ts {
		size += c.headSize()
	}
	return size
}

// NewType parses a canonical type name such as "uint256", "bytes32[]" or
// "(address,uint64)[2]". "uint" and "int" are read as their 256 bit forms.
func NewType(name string) (Type, error) {
	p := &typeParser{input: strings.TrimSpace(name)}
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	if !p.done() {
		return Type{}, p.errorf("unexpected trailing input")
	}
	return t, nil
}

// MustNewType is NewType that panics on error, for static type declarations
func MustNewType(name string) Type {
	t, err := NewType(name)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTypes parses a comma separated type list (without surrounding parentheses)
func NewTypes(list string) ([]Type, error) {
	p := &typeParser{input: "(" + strings.TrimSpace(list) + ")"}
	ts, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("unexpected trailing input")
	}
	return ts, nil
}

type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) done() bool {
	return p.pos >= len(p.input)
}

func (p *typeParser) peek() byte {
	if p.done() {
		return 0
	}
	return p.input[p.pos]
}

func (p *typeParser) errorf(msg string, args ...interface{}) error {
	return fmt.Errorf("invalid abi type %q at position %d: %s", p.input, p.pos, fmt.Sprintf(msg, args...))
}

func (p *typeParser) parseType() (Type, error) {
	var t Type
	var err error
	if p.peek() == '(' {
		var components []Type
		components, err = p.parseList()
		if err != nil {
			return Type{}, err
		}
		if len(components) == 0 {
			return Type{}, p.errorf("empty tuple")
		}
		t = TupleOf(components...)
	} else {
		t, err = p.parseElementary()
		if err != nil {
			return Type{}, err
		}
	}
	for p.peek() == '[' {
		p.pos++
		start := p.pos
		for !p.done() && p.peek() != ']' {
			p.pos++
		}
		if p.done() {
			return Type{}, p.errorf("unterminated array suffix")
		}
		digits := p.input[start:p.pos]
		p.pos++
		if digits == "" {
			t = SliceOf(t)
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n <= 0 {
			return Type{}, p.errorf("invalid array length %q", digits)
		}
		if n > MaxArrayHeadSize/t.headSize() {
			return Type{}, p.errorf("array length %d of %s exceeds %d head bytes", n, t, MaxArrayHeadSize)
		}
		t = ArrayOf(t, n)
	}
	return t, nil
}

// parseList parses "(T1,T2,...)" including the parentheses
func (p *typeParser) parseList() ([]Type, error) {
	if p.peek() != '(' {
		return nil, p.errorf("expected '('")
	}
	p.pos++
	ts := make([]Type, 0)
	if p.peek() == ')' {
		p.pos++
		return ts, nil
	}
	for {
		p.skipSpaces()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
		p.skipSpaces()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return ts, nil
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *typeParser) skipSpaces() {
	for p.peek() == ' ' {
		p.pos++
	}
}

func (p *typeParser) parseElementary() (Type, error) {
	start := p.pos
	for !p.done() {
		c := p.peek()
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	name := p.input[start:p.pos]
	switch {
	case name == "address":
		return Address, nil
	case name == "bool":
		return Bool, nil
	case name == "string":
		return String, nil
	case name == "bytes":
		return Bytes, nil
	case strings.HasPrefix(name, "bytes"):
		n, err := strconv.Atoi(name[len("bytes"):])
		if err != nil || n < 1 || n > 32 {
			return Type{}, p.errorf("invalid fixed bytes type %q", name)
		}
		return FixedBytes(n), nil
	case strings.HasPrefix(name, "uint"):
		bits, err := parseBits(name[len("uint"):])
		if err != nil {
			return Type{}, p.errorf("%s: %v", name, err)
		}
		return Uint(bits), nil
	case strings.HasPrefix(name, "int"):
		bits, err := parseBits(name[len("int"):])
		if err != nil {
			return Type{}, p.errorf("%s: %v", name, err)
		}
		return Int(bits), nil
	case name == "":
		return Type{}, p.errorf("missing type name")
	default:
		return Type{}, p.errorf("unsupported type %q", name)
	}
}

func parseBits(suffix string) (int, error) {
	if suffix == "" {
		return 256, nil
	}
	bits, err := strconv.Atoi(suffix)
	if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
		return 0, fmt.Errorf("invalid integer size %q", suffix)
	}
	return bits, nil
}
