package abi

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	gethABI "github.com/ethereum/go-ethereum/accounts/abi"
	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func words(t *testing.T, ws ...string) []byte {
	var data []byte
	for _, w := range ws {
		b, err := hex.DecodeString(w)
		require.NoError(t, err)
		data = append(data, leftPad(b)...)
	}
	return data
}

func TestEncodeCall(t *testing.T) {
	t.Parallel()

	t.Run("zero argument call is the bare selector", func(t *testing.T) {
		t.Parallel()

		selector := NewSelector("name()")
		require.Equal(t, "0x06fdde03", selector.String())

		data, err := EncodeCall(selector, nil)
		require.NoError(t, err)
		require.Equal(t, []byte{0x06, 0xfd, 0xde, 0x03}, data)

		method := MustParseMethod("name() returns (string)")
		data, err = method.EncodeCall()
		require.NoError(t, err)
		require.Equal(t, []byte{0x06, 0xfd, 0xde, 0x03}, data)
	})

	t.Run("well known selectors", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "0xa9059cbb", MustParseMethod("transfer(address,uint256)(bool)").Selector().String())
		require.Equal(t, "0x70a08231", MustParseMethod("balanceOf(address)").Selector().String())
		require.Equal(t, "0x6057361d", MustParseMethod("store(uint256)").Selector().String())
		require.Equal(t, "0x2e64cec1", MustParseMethod("retrieve()(uint256)").Selector().String())
	})

	t.Run("static argument follows the selector", func(t *testing.T) {
		t.Parallel()

		data, err := MustParseMethod("store(uint256)").EncodeCall(big.NewInt(42))
		require.NoError(t, err)
		require.Equal(t, append([]byte{0x60, 0x57, 0x36, 0x1d}, words(t, "2a")...), data)
	})

	t.Run("selector from hex", func(t *testing.T) {
		t.Parallel()

		s, err := SelectorFromHex("0x06fdde03")
		require.NoError(t, err)
		require.Equal(t, NewSelector("name()"), s)

		_, err = SelectorFromHex("06fdde")
		require.Error(t, err)
		_, err = SelectorFromHex("zz")
		require.Error(t, err)
	})
}

func TestDecodeReturn(t *testing.T) {
	t.Parallel()

	t.Run("string return", func(t *testing.T) {
		t.Parallel()

		data := words(t, "20", "07")
		data = append(data, rightPad([]byte("DataCap"))...)

		values, err := MustParseMethod("name()(string)").DecodeReturn(data)
		require.NoError(t, err)
		require.Equal(t, []interface{}{"DataCap"}, values)
	})

	t.Run("dynamic sections out of textual order", func(t *testing.T) {
		t.Parallel()

		data := words(t, "80", "40", "01")
		data = append(data, rightPad([]byte("b"))...)
		data = append(data, words(t, "01")...)
		data = append(data, rightPad([]byte("a"))...)

		values, err := Decode([]Type{String, String}, data)
		require.NoError(t, err)
		require.Equal(t, []interface{}{"a", "b"}, values)
	})

	t.Run("empty return for no outputs", func(t *testing.T) {
		t.Parallel()

		values, err := Decode(nil, nil)
		require.NoError(t, err)
		require.Empty(t, values)
	})

	t.Run("signed values", func(t *testing.T) {
		t.Parallel()

		minusOne := strings.Repeat("ff", WordSize)
		values, err := Decode([]Type{Int256, Int(8)}, words(t, minusOne, minusOne))
		require.NoError(t, err)
		require.Equal(t, 0, big.NewInt(-1).Cmp(values[0].(*big.Int)))
		require.Equal(t, 0, big.NewInt(-1).Cmp(values[1].(*big.Int)))
	})
}

func TestDecodeMalformedPayload(t *testing.T) {
	t.Parallel()

	dataCap := append(words(t, "20", "07"), rightPad([]byte("DataCap"))...)
	dirty := append([]byte{}, dataCap...)
	dirty[len(dirty)-1] = 0x01

	cases := []struct {
		name  string
		types []Type
		data  []byte
	}{
		{"length not a multiple of the word size", []Type{Uint256}, make([]byte, 33)},
		{"empty payload for a static value", []Type{Uint256}, nil},
		{"offset into the head", []Type{String}, words(t, "00", "07")},
		{"offset outside the payload", []Type{String}, words(t, "40", "00")},
		{"huge offset", []Type{String}, words(t, strings.Repeat("ff", WordSize))},
		{"length exceeds payload", []Type{String}, words(t, "20", "40")},
		{"dirty string padding", []Type{String}, dirty},
		{"bool out of range", []Type{Bool}, words(t, "02")},
		{"dirty address", []Type{Address}, words(t, "01"+strings.Repeat("00", 31))},
		{"uint8 overflow", []Type{Uint8}, words(t, "0100")},
		{"int8 not sign extended", []Type{Int(8)}, words(t, "80")},
		{"dirty fixed bytes padding", []Type{FixedBytes(4)}, words(t, "01")},
		{"slice length exceeds payload", []Type{SliceOf(Uint256)}, words(t, "20", "05", "01")},
		{"fixed array exceeds payload", []Type{ArrayOf(Uint256, 3)}, words(t, "01", "02")},
		{"fixed array length overflows the head", []Type{ArrayOf(Uint256, 1<<59)}, words(t, "01")},
		{"aliased inner offsets", []Type{SliceOf(SliceOf(Uint256))}, words(t, "20", "03", "60", "60", "60", "02", "01", "02")},
		{"nested fixed array exceeds payload", []Type{SliceOf(ArrayOf(Uint256, 1<<20))}, words(t, "20", "01", "01")},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			values, err := Decode(c.types, c.data)
			require.Error(t, err)
			require.True(t, IsMalformedPayloadError(err), err.Error())
			require.Nil(t, values)
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	t.Parallel()

	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)

	cases := []struct {
		name  string
		types []Type
		args  []interface{}
	}{
		{"uint8 overflow", []Type{Uint8}, []interface{}{256}},
		{"uint256 overflow", []Type{Uint256}, []interface{}{tooBig}},
		{"negative unsigned", []Type{Uint256}, []interface{}{big.NewInt(-1)}},
		{"int8 overflow", []Type{Int(8)}, []interface{}{128}},
		{"int8 underflow", []Type{Int(8)}, []interface{}{-129}},
		{"short fixed bytes", []Type{Bytes32}, []interface{}{make([]byte, 31)}},
		{"short address", []Type{Address}, []interface{}{make([]byte, 19)}},
		{"wrong value type", []Type{Bool}, []interface{}{"true"}},
		{"nil big int", []Type{Uint256}, []interface{}{(*big.Int)(nil)}},
		{"fixed array length", []Type{ArrayOf(Uint8, 2)}, []interface{}{[]uint8{1}}},
		{"value count", []Type{Uint256, Uint256}, []interface{}{1}},
		{"nested overflow", []Type{SliceOf(Uint8)}, []interface{}{[]int{1, 300}}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			_, err := Encode(c.types, c.args)
			require.Error(t, err)
			require.True(t, IsEncodeError(err), err.Error())
		})
	}

	t.Run("signed bounds are inclusive", func(t *testing.T) {
		t.Parallel()

		data, err := Encode([]Type{Int(8), Int(8)}, []interface{}{-128, 127})
		require.NoError(t, err)

		values, err := Decode([]Type{Int(8), Int(8)}, data)
		require.NoError(t, err)
		require.Equal(t, int64(-128), values[0].(*big.Int).Int64())
		require.Equal(t, int64(127), values[1].(*big.Int).Int64())
	})
}

// go-ethereum's abi package serves as an independent reference encoder
func TestEncodeMatchesReferenceEncoder(t *testing.T) {
	t.Parallel()

	addr := gethCommon.HexToAddress("0xDAFEA492D9c6733ae3d56b7Ed1ADB60692c98Bc5")
	var salt [32]byte
	salt[0], salt[31] = 0xaa, 0x01

	cases := []struct {
		types string
		ours  []interface{}
		geth  []interface{}
	}{
		{"uint256", []interface{}{big.NewInt(42)}, []interface{}{big.NewInt(42)}},
		{"uint64", []interface{}{7}, []interface{}{uint64(7)}},
		{"int256", []interface{}{big.NewInt(-1)}, []interface{}{big.NewInt(-1)}},
		{"int8", []interface{}{-5}, []interface{}{int8(-5)}},
		{"address", []interface{}{addr}, []interface{}{addr}},
		{"bool", []interface{}{true}, []interface{}{true}},
		{"bytes32", []interface{}{salt}, []interface{}{salt}},
		{"bytes", []interface{}{[]byte("hello")}, []interface{}{[]byte("hello")}},
		{"string", []interface{}{"DataCap"}, []interface{}{"DataCap"}},
		{"string", []interface{}{strings.Repeat("x", 70)}, []interface{}{strings.Repeat("x", 70)}},
		{"uint256[]",
			[]interface{}{[]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}},
			[]interface{}{[]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}}},
		{"string[]", []interface{}{[]string{"a", "bc"}}, []interface{}{[]string{"a", "bc"}}},
		{"uint8[2]", []interface{}{[2]uint8{1, 2}}, []interface{}{[2]uint8{1, 2}}},
		{"bytes,bytes32",
			[]interface{}{[]byte{0x60, 0x80}, salt},
			[]interface{}{[]byte{0x60, 0x80}, salt}},
		{"address,uint256,string,bool",
			[]interface{}{addr, big.NewInt(1000), "memo", false},
			[]interface{}{addr, big.NewInt(1000), "memo", false}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.types, func(t *testing.T) {
			t.Parallel()

			ts, err := NewTypes(c.types)
			require.NoError(t, err)

			var args gethABI.Arguments
			for _, name := range strings.Split(c.types, ",") {
				typ, err := gethABI.NewType(name, "", nil)
				require.NoError(t, err)
				args = append(args, gethABI.Argument{Type: typ})
			}
			expected, err := args.Pack(c.geth...)
			require.NoError(t, err)

			encoded, err := Encode(ts, c.ours)
			require.NoError(t, err)
			require.Equal(t, hex.EncodeToString(expected), hex.EncodeToString(encoded))

			// decoding then re-encoding reproduces the canonical bytes
			decoded, err := Decode(ts, encoded)
			require.NoError(t, err)
			reencoded, err := Encode(ts, decoded)
			require.NoError(t, err)
			require.Equal(t, encoded, reencoded)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	ts := []Type{Uint64, Address, SliceOf(Bool), TupleOf(String, Bytes)}
	addr := gethCommon.HexToAddress("0x01")

	normalized, err := Normalize(ts, []interface{}{
		uint64(9),
		addr,
		[]bool{true, false},
		[]interface{}{"x", []byte{0x01}},
	})
	require.NoError(t, err)
	require.Equal(t, []interface{}{
		big.NewInt(9),
		addr,
		[]interface{}{true, false},
		[]interface{}{"x", []byte{0x01}},
	}, normalized)
}

func TestDecodeNestedSlices(t *testing.T) {
	t.Parallel()

	ts := []Type{SliceOf(SliceOf(Uint256)), SliceOf(String)}
	values := []interface{}{
		[]interface{}{[]uint64{1, 2}, []uint64{}, []uint64{3}},
		[]string{"", "a", ""},
	}

	data, err := Encode(ts, values)
	require.NoError(t, err)

	decoded, err := Decode(ts, data)
	require.NoError(t, err)
	require.Len(t, decoded[0], 3)
	require.Len(t, decoded[0].([]interface{})[1], 0)
	require.Equal(t, []interface{}{"", "a", ""}, decoded[1])
}
