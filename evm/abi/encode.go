package abi

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

var two256 = new(big.Int).Lsh(big.NewInt(1), 256)

// Encode returns the canonical abi encoding of values as a tuple of types.
func Encode(ts []Type, values []interface{}) ([]byte, error) {
	if len(ts) != len(values) {
		return nil, NewEncodeErrorf("args", TupleOf(ts...), "expected %d values, got %d", len(ts), len(values))
	}
	return encodeTuple("args", ts, values)
}

func encodeTuple(path string, ts []Type, values []interface{}) ([]byte, error) {
	headSize := tupleHeadSize(ts)
	head := make([]byte, 0, headSize)
	var tail []byte
	for i, t := range ts {
		enc, err := encodeValue(fmt.Sprintf("%s[%d]", path, i), t, values[i])
		if err != nil {
			return nil, err
		}
		if t.IsDynamic() {
			head = append(head, offsetWord(headSize+len(tail))...)
			tail = append(tail, enc...)
			continue
		}
		head = append(head, enc...)
	}
	return append(head, tail...), nil
}

func encodeValue(path string, t Type, v interface{}) ([]byte, error) {
	switch t.Kind {
	case UintKind:
		b, err := toBigInt(v)
		if err != nil {
			return nil, NewEncodeErrorf(path, t, "%v", err)
		}
		if b.Sign() < 0 {
			return nil, NewEncodeErrorf(path, t, "negative value %s", b)
		}
		if b.BitLen() > t.Size {
			return nil, NewEncodeErrorf(path, t, "value %s overflows %d bits", b, t.Size)
		}
		return bigWord(b), nil

	case IntKind:
		b, err := toBigInt(v)
		if err != nil {
			return nil, NewEncodeErrorf(path, t, "%v", err)
		}
		if !fitsSigned(b, t.Size) {
			return nil, NewEncodeErrorf(path, t, "value %s overflows %d bits", b, t.Size)
		}
		if b.Sign() < 0 {
			return bigWord(new(big.Int).Add(b, two256)), nil
		}
		return bigWord(b), nil

	case AddressKind:
		b, err := bytesOf(v)
		if err != nil {
			return nil, NewEncodeErrorf(path, t, "%v", err)
		}
		if len(b) != 20 {
			return nil, NewEncodeErrorf(path, t, "expected 20 bytes, got %d", len(b))
		}
		return leftPad(b), nil

	case BoolKind:
		b, ok := v.(bool)
		if !ok {
			return nil, NewEncodeErrorf(path, t, "unsupported value type %T", v)
		}
		word := make([]byte, WordSize)
		if b {
			word[WordSize-1] = 1
		}
		return word, nil

	case FixedBytesKind:
		b, err := bytesOf(v)
		if err != nil {
			return nil, NewEncodeErrorf(path, t, "%v", err)
		}
		if len(b) != t.Size {
			return nil, NewEncodeErrorf(path, t, "expected %d bytes, got %d", t.Size, len(b))
		}
		return rightPad(b), nil

	case BytesKind:
		b, err := bytesOf(v)
		if err != nil {
			return nil, NewEncodeErrorf(path, t, "%v", err)
		}
		return append(offsetWord(len(b)), rightPad(b)...), nil

	case StringKind:
		s, ok := v.(string)
		if !ok {
			return nil, NewEncodeErrorf(path, t, "unsupported value type %T", v)
		}
		return append(offsetWord(len(s)), rightPad([]byte(s))...), nil

	case SliceKind:
		elems, err := elementsOf(v)
		if err != nil {
			return nil, NewEncodeErrorf(path, t, "%v", err)
		}
		enc, err := encodeTuple(path, repeat(*t.Elem, len(elems)), elems)
		if err != nil {
			return nil, err
		}
		return append(offsetWord(len(elems)), enc...), nil

	case ArrayKind:
		elems, err := elementsOf(v)
		if err != nil {
			return nil, NewEncodeErrorf(path, t, "%v", err)
		}
		if len(elems) != t.Size {
			return nil, NewEncodeErrorf(path, t, "expected %d elements, got %d", t.Size, len(elems))
		}
		return encodeTuple(path, repeat(*t.Elem, t.Size), elems)

	case TupleKind:
		elems, err := elementsOf(v)
		if err != nil {
			return nil, NewEncodeErrorf(path, t, "%v", err)
		}
		if len(elems) != len(t.Components) {
			return nil, NewEncodeErrorf(path, t, "expected %d components, got %d", len(t.Components), len(elems))
		}
		return encodeTuple(path, t.Components, elems)

	default:
		return nil, NewEncodeErrorf(path, t, "unsupported type kind %d", t.Kind)
	}
}

func fitsSigned(b *big.Int, bits int) bool {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if b.Sign() >= 0 {
		return b.Cmp(limit) < 0
	}
	return new(big.Int).Neg(b).Cmp(limit) <= 0
}

// bigWord expects 0 <= b < 2^256
func bigWord(b *big.Int) []byte {
	u, _ := uint256.FromBig(b)
	word := u.Bytes32()
	return word[:]
}

func offsetWord(n int) []byte {
	word := uint256.NewInt(uint64(n)).Bytes32()
	return word[:]
}

func leftPad(b []byte) []byte {
	word := make([]byte, WordSize)
	copy(word[WordSize-len(b):], b)
	return word
}

func rightPad(b []byte) []byte {
	padded := make([]byte, paddedLen(len(b)))
	copy(padded, b)
	return padded
}

func paddedLen(n int) int {
	return (n + WordSize - 1) / WordSize * WordSize
}

func repeat(t Type, n int) []Type {
	ts := make([]Type, n)
	for i := range ts {
		ts[i] = t
	}
	return ts
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil *big.Int")
		}
		return x, nil
	case big.Int:
		return &x, nil
	case *uint256.Int:
		if x == nil {
			return nil, fmt.Errorf("nil *uint256.Int")
		}
		return x.ToBig(), nil
	case uint256.Int:
		return x.ToBig(), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int8:
		return big.NewInt(int64(x)), nil
	case int16:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// bytesOf accepts byte slices and byte arrays, including named types such as
// common.Address or hexutil.Bytes
func bytesOf(v interface{}) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), nil
		}
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func elementsOf(v interface{}) ([]interface{}, error) {
	if elems, ok := v.([]interface{}); ok {
		return elems, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	elems := make([]interface{}, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, nil
}
