package abi

import (
	"fmt"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Decode decodes a payload holding a tuple of the given types.
//
// Decoded values use the following Go forms: *big.Int for every integer type,
// common.Address, bool, []byte for bytes and bytes<n>, string, and
// []interface{} for slices, fixed arrays and tuples. Any structural violation
// is reported as a MalformedPayloadError and no value is returned.
func Decode(ts []Type, data []byte) ([]interface{}, error) {
	if len(data)%WordSize != 0 {
		return nil, NewMalformedPayloadErrorf(len(data), "args",
			"payload length %d is not a multiple of %d", len(data), WordSize)
	}
	d := &decoder{data: data, budget: len(data) / WordSize}
	return d.decodeTuple("args", ts, 0)
}

// Normalize returns values in their decoded form, so that values built by
// hand can be compared with values coming out of Decode.
func Normalize(ts []Type, values []interface{}) ([]interface{}, error) {
	encoded, err := Encode(ts, values)
	if err != nil {
		return nil, err
	}
	return Decode(ts, encoded)
}

// decoder reads a payload. Every leaf value and every length prefixed value
// occupies a word of its own in a canonical encoding, so decoding more of
// them than the payload has words means offsets were aliased.
type decoder struct {
	data   []byte
	budget int
}

func (d *decoder) spend(offset int, path string) error {
	if d.budget == 0 {
		return NewMalformedPayloadErrorf(offset, path,
			"payload of %d bytes decodes to more values than it has words", len(d.data))
	}
	d.budget--
	return nil
}

func (d *decoder) word(offset int, path string) ([]byte, error) {
	if offset < 0 || offset+WordSize > len(d.data) {
		return nil, NewMalformedPayloadErrorf(offset, path, "word exceeds payload of %d bytes", len(d.data))
	}
	return d.data[offset : offset+WordSize], nil
}

// index reads a word holding an offset or a length, bounded by the payload size
func (d *decoder) index(offset int, path string) (int, error) {
	w, err := d.word(offset, path)
	if err != nil {
		return 0, err
	}
	u := new(uint256.Int).SetBytes32(w)
	if !u.IsUint64() || u.Uint64() > uint64(len(d.data)) {
		return 0, NewMalformedPayloadErrorf(offset, path, "value %s exceeds payload of %d bytes", u.ToBig(), len(d.data))
	}
	return int(u.Uint64()), nil
}

func (d *decoder) decodeTuple(path string, ts []Type, base int) ([]interface{}, error) {
	headSize := tupleHeadSize(ts)
	if base+headSize > len(d.data) {
		return nil, NewMalformedPayloadErrorf(base, path,
			"head of %d bytes exceeds payload of %d bytes", headSize, len(d.data))
	}

	values := make([]interface{}, len(ts))
	pos := base
	for i, t := range ts {
		p := fmt.Sprintf("%s[%d]", path, i)
		at := pos
		if t.IsDynamic() {
			off, err := d.index(pos, p)
			if err != nil {
				return nil, err
			}
			if off < headSize {
				return nil, NewMalformedPayloadErrorf(pos, p,
					"offset %d points into the head of %d bytes", off, headSize)
			}
			at = base + off
			if at >= len(d.data) {
				return nil, NewMalformedPayloadErrorf(pos, p, "offset %d points outside the payload", off)
			}
		}
		v, err := d.decodeValue(p, t, at)
		if err != nil {
			return nil, err
		}
		values[i] = v
		pos += t.headSize()
	}
	return values, nil
}

func (d *decoder) decodeValue(path string, t Type, offset int) (interface{}, error) {
	if t.Kind != ArrayKind && t.Kind != TupleKind {
		if err := d.spend(offset, path); err != nil {
			return nil, err
		}
	}
	switch t.Kind {
	case UintKind:
		w, err := d.word(offset, path)
		if err != nil {
			return nil, err
		}
		u := new(uint256.Int).SetBytes32(w)
		if u.BitLen() > t.Size {
			return nil, NewMalformedPayloadErrorf(offset, path, "value exceeds %s", t)
		}
		return u.ToBig(), nil

	case IntKind:
		w, err := d.word(offset, path)
		if err != nil {
			return nil, err
		}
		b := new(uint256.Int).SetBytes32(w).ToBig()
		if w[0]&0x80 != 0 {
			b.Sub(b, two256)
		}
		if !fitsSigned(b, t.Size) {
			return nil, NewMalformedPayloadErrorf(offset, path, "value is not sign extended for %s", t)
		}
		return b, nil

	case AddressKind:
		w, err := d.word(offset, path)
		if err != nil {
			return nil, err
		}
		if !isZero(w[:WordSize-gethCommon.AddressLength]) {
			return nil, NewMalformedPayloadErrorf(offset, path, "dirty high bytes in address")
		}
		return gethCommon.BytesToAddress(w[WordSize-gethCommon.AddressLength:]), nil

	case BoolKind:
		w, err := d.word(offset, path)
		if err != nil {
			return nil, err
		}
		if !isZero(w[:WordSize-1]) || w[WordSize-1] > 1 {
			return nil, NewMalformedPayloadErrorf(offset, path, "invalid bool word %x", w)
		}
		return w[WordSize-1] == 1, nil

	case FixedBytesKind:
		w, err := d.word(offset, path)
		if err != nil {
			return nil, err
		}
		if !isZero(w[t.Size:]) {
			return nil, NewMalformedPayloadErrorf(offset, path, "dirty padding in %s", t)
		}
		return append([]byte{}, w[:t.Size]...), nil

	case BytesKind, StringKind:
		n, err := d.index(offset, path)
		if err != nil {
			return nil, err
		}
		start := offset + WordSize
		end := start + paddedLen(n)
		if end > len(d.data) {
			return nil, NewMalformedPayloadErrorf(offset, path,
				"%d bytes of content exceed payload of %d bytes", n, len(d.data))
		}
		if !isZero(d.data[start+n : end]) {
			return nil, NewMalformedPayloadErrorf(start+n, path, "dirty padding after %s content", t)
		}
		content := append([]byte{}, d.data[start:start+n]...)
		if t.Kind == StringKind {
			return string(content), nil
		}
		return content, nil

	case SliceKind:
		n, err := d.index(offset, path)
		if err != nil {
			return nil, err
		}
		start := offset + WordSize
		if h := t.Elem.headSize(); h > 0 && n > (len(d.data)-start)/h {
			return nil, NewMalformedPayloadErrorf(offset, path,
				"%d elements exceed payload of %d bytes", n, len(d.data))
		}
		return d.decodeTuple(path, repeat(*t.Elem, n), start)

	case ArrayKind:
		if h := t.Elem.headSize(); h <= 0 || offset > len(d.data) || t.Size > (len(d.data)-offset)/h {
			return nil, NewMalformedPayloadErrorf(offset, path,
				"%s exceeds payload of %d bytes", t, len(d.data))
		}
		return d.decodeTuple(path, repeat(*t.Elem, t.Size), offset)

	case TupleKind:
		return d.decodeTuple(path, t.Components, offset)

	default:
		return nil, NewMalformedPayloadErrorf(offset, path, "unsupported type kind %d", t.Kind)
	}
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
