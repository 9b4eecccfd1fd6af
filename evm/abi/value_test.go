package abi

import (
	"errors"
	"math/big"
	"testing"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	t.Parallel()

	t.Run("integers", func(t *testing.T) {
		t.Parallel()

		for raw, expected := range map[interface{}]int64{
			"0x10":      16,
			" 42 ":      42,
			"-5":        -5,
			7:           7,
			int64(8):    8,
			uint64(9):   9,
			float64(3):  3,
			float64(-2): -2,
		} {
			v, err := ParseValue(Int256, raw)
			require.NoError(t, err, raw)
			assert.Equal(t, expected, v.(*big.Int).Int64(), raw)
		}

		for _, raw := range []interface{}{"", "abc", 3.5, true, "0x"} {
			_, err := ParseValue(Uint256, raw)
			assert.Error(t, err, raw)
		}
	})

	t.Run("hex values", func(t *testing.T) {
		t.Parallel()

		v, err := ParseValue(Address, "0xDAFEA492D9c6733ae3d56b7Ed1ADB60692c98Bc5")
		require.NoError(t, err)
		assert.Equal(t, gethCommon.HexToAddress("0xDAFEA492D9c6733ae3d56b7Ed1ADB60692c98Bc5"), v)

		_, err = ParseValue(Address, "0x1234")
		assert.Error(t, err)

		v, err = ParseValue(Bytes, "6080")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x60, 0x80}, v)

		v, err = ParseValue(Bytes, "0x")
		require.NoError(t, err)
		assert.Empty(t, v)

		_, err = ParseValue(FixedBytes(4), "0x0102")
		assert.Error(t, err)

		_, err = ParseValue(Bytes, "0x123")
		assert.Error(t, err)
	})

	t.Run("lists and tuples", func(t *testing.T) {
		t.Parallel()

		v, err := ParseValue(SliceOf(Uint256), []interface{}{1, "0x02"})
		require.NoError(t, err)
		values := v.([]interface{})
		require.Len(t, values, 2)
		assert.Equal(t, int64(2), values[1].(*big.Int).Int64())

		_, err = ParseValue(ArrayOf(Uint256, 3), []interface{}{1, 2})
		assert.Error(t, err)

		v, err = ParseValue(TupleOf(String, Bool), []interface{}{"x", "true"})
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"x", true}, v)

		_, err = ParseValue(TupleOf(String, Bool), "x")
		assert.Error(t, err)
	})

	t.Run("parsed values encode", func(t *testing.T) {
		t.Parallel()

		ts := []Type{Uint8, Address, Bytes, SliceOf(String)}
		values, err := ParseValues(ts, []interface{}{
			255,
			"0x0000000000000000000000000000000000000001",
			"0xdeadbeef",
			[]interface{}{"a", "b"},
		})
		require.NoError(t, err)

		_, err = Encode(ts, values)
		require.NoError(t, err)

		_, err = ParseValues(ts, []interface{}{1})
		assert.Error(t, err)
	})
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[1, \"a\", 0x0102, true, <nil>]", FormatValue([]interface{}{
		big.NewInt(1), "a", []byte{0x01, 0x02}, true, nil,
	}))
	assert.Equal(t, "0x0000000000000000000000000000000000000001", FormatValue(gethCommon.HexToAddress("0x01")))
}

func TestDecodeRevert(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0x08c379a0", ErrorSelector.String())
	assert.Equal(t, "0x4e487b71", PanicSelector.String())

	t.Run("error message", func(t *testing.T) {
		t.Parallel()

		reason, err := DecodeRevert(EncodeRevert("insufficient allowance"))
		require.NoError(t, err)
		assert.False(t, reason.IsPanic())
		assert.Equal(t, "insufficient allowance", reason.String())
	})

	t.Run("panic code", func(t *testing.T) {
		t.Parallel()

		data, err := EncodeCall(PanicSelector, []Type{Uint256}, 0x11)
		require.NoError(t, err)

		reason, err := DecodeRevert(data)
		require.NoError(t, err)
		assert.True(t, reason.IsPanic())
		assert.Equal(t, "panic 0x11 (arithmetic underflow or overflow)", reason.String())
	})

	t.Run("no reason", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeRevert(nil)
		assert.True(t, errors.Is(err, ErrNoRevertReason))

		_, err = DecodeRevert([]byte{0x06, 0xfd, 0xde, 0x03})
		assert.True(t, errors.Is(err, ErrNoRevertReason))
	})

	t.Run("malformed reason", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeRevert(append(ErrorSelector.Bytes(), 0x01))
		assert.True(t, IsMalformedPayloadError(err))
	})
}
