package abi

import (
	"math/big"
	"testing"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestRoundTripRapid checks that decoding an encoding gives back the values,
// and that re-encoding the decoded values gives back the same bytes.
func TestRoundTripRapid(t *testing.T) {
	ts, err := NewTypes("uint64,int8,int256,bool,address,bytes,string,uint32[],bytes4,(uint16,string)[]")
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		u := rapid.Uint64().Draw(t, "u")
		small := rapid.Int8().Draw(t, "small")
		signed := rapid.Int64().Draw(t, "signed")
		flag := rapid.Bool().Draw(t, "flag")
		addr := gethCommon.BytesToAddress(rapid.SliceOfN(rapid.Byte(), 20, 20).Draw(t, "address"))
		blob := rapid.SliceOfN(rapid.Byte(), 0, 80).Draw(t, "blob")
		text := rapid.String().Draw(t, "text")
		list := rapid.SliceOfN(rapid.Uint32(), 0, 6).Draw(t, "list")
		fixed := rapid.SliceOfN(rapid.Byte(), 4, 4).Draw(t, "fixed")
		pairs := rapid.SliceOfN(rapid.Uint16(), 0, 4).Draw(t, "pairs")

		tuples := make([]interface{}, len(pairs))
		for i, p := range pairs {
			tuples[i] = []interface{}{p, text}
		}
		values := []interface{}{u, small, signed, flag, addr, blob, text, list, fixed, tuples}

		data, err := Encode(ts, values)
		require.NoError(t, err)
		require.Zero(t, len(data)%WordSize)

		decoded, err := Decode(ts, data)
		require.NoError(t, err)
		require.Len(t, decoded, len(ts))

		require.Equal(t, u, decoded[0].(*big.Int).Uint64())
		require.Equal(t, int64(small), decoded[1].(*big.Int).Int64())
		require.Equal(t, signed, decoded[2].(*big.Int).Int64())
		require.Equal(t, flag, decoded[3])
		require.Equal(t, addr, decoded[4])
		require.Equal(t, blob, decoded[5])
		require.Equal(t, text, decoded[6])
		require.Len(t, decoded[7], len(list))
		require.Equal(t, fixed, decoded[8])
		require.Len(t, decoded[9], len(pairs))

		again, err := Encode(ts, decoded)
		require.NoError(t, err)
		require.Equal(t, data, again)
	})
}

// TestTruncatedPayloadRapid checks that every strict prefix of a valid
// payload is rejected as malformed rather than decoded or panicking.
func TestTruncatedPayloadRapid(t *testing.T) {
	ts, err := NewTypes("uint256,bytes,string[]")
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		blob := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "blob")
		strs := rapid.SliceOfN(rapid.String(), 0, 3).Draw(t, "strings")

		data, err := Encode(ts, []interface{}{uint64(1), blob, strs})
		require.NoError(t, err)

		cut := rapid.IntRange(0, len(data)-1).Draw(t, "cut")
		_, err = Decode(ts, data[:cut])
		require.Error(t, err)
		require.True(t, IsMalformedPayloadError(err), err)
	})
}
