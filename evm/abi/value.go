package abi

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethMath "github.com/ethereum/go-ethereum/common/math"
)

// ParseValue converts a loosely typed value, as read from a YAML, JSON or TOML
// scenario file, into the Go form Encode accepts for t.
//
// Integers are read from Go integers, integral floats or decimal and 0x
// prefixed strings. Addresses, bytes and bytes<n> are read from hex strings.
// Slices, arrays and tuples are read from lists.
func ParseValue(t Type, raw interface{}) (interface{}, error) {
	switch t.Kind {
	case UintKind, IntKind:
		return parseInteger(t, raw)

	case AddressKind:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected a hex string, got %T", t, raw)
		}
		if !gethCommon.IsHexAddress(s) {
			return nil, fmt.Errorf("%s: invalid address %q", t, s)
		}
		return gethCommon.HexToAddress(s), nil

	case BoolKind:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case string:
			v, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t, err)
			}
			return v, nil
		default:
			return nil, fmt.Errorf("%s: expected a bool, got %T", t, raw)
		}

	case FixedBytesKind, BytesKind:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected a hex string, got %T", t, raw)
		}
		b, err := ParseHex(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		if t.Kind == FixedBytesKind && len(b) != t.Size {
			return nil, fmt.Errorf("%s: expected %d bytes, got %d", t, t.Size, len(b))
		}
		return b, nil

	case StringKind:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected a string, got %T", t, raw)
		}
		return s, nil

	case SliceKind, ArrayKind:
		list, err := elementsOf(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: expected a list, got %T", t, raw)
		}
		if t.Kind == ArrayKind && len(list) != t.Size {
			return nil, fmt.Errorf("%s: expected %d elements, got %d", t, t.Size, len(list))
		}
		return parseList(repeat(*t.Elem, len(list)), list)

	case TupleKind:
		list, err := elementsOf(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: expected a list, got %T", t, raw)
		}
		if len(list) != len(t.Components) {
			return nil, fmt.Errorf("%s: expected %d components, got %d", t, len(t.Components), len(list))
		}
		return parseList(t.Components, list)

	default:
		return nil, fmt.Errorf("unsupported type kind %d", t.Kind)
	}
}

// ParseValues applies ParseValue to a list of raw values
func ParseValues(ts []Type, raw []interface{}) ([]interface{}, error) {
	if len(ts) != len(raw) {
		return nil, fmt.Errorf("expected %d values, got %d", len(ts), len(raw))
	}
	return parseList(ts, raw)
}

func parseList(ts []Type, raw []interface{}) ([]interface{}, error) {
	values := make([]interface{}, len(raw))
	for i := range raw {
		v, err := ParseValue(ts[i], raw[i])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

func parseInteger(t Type, raw interface{}) (*big.Int, error) {
	switch x := raw.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, fmt.Errorf("%s: empty integer", t)
		}
		b, ok := gethMath.ParseBig256(s)
		if !ok {
			return nil, fmt.Errorf("%s: invalid integer %q", t, x)
		}
		return b, nil
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > 1<<53 {
			return nil, fmt.Errorf("%s: %v is not an exact integer, quote large values", t, x)
		}
		return big.NewInt(int64(x)), nil
	default:
		b, err := toBigInt(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		return b, nil
	}
}

// ParseHex decodes a hex string with an optional 0x prefix. Surrounding
// whitespace is ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

// FormatValue renders a value in the Go forms produced by Decode for reports
// and assertion messages.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case *big.Int:
		return x.String()
	case gethCommon.Address:
		return x.Hex()
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", x)
	}
}
