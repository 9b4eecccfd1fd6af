package types

import (
	"encoding/hex"
	"testing"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestParamsEnvelope(t *testing.T) {
	t.Run("selector only call data", func(t *testing.T) {
		encoded, err := EncodeParams([]byte{0x06, 0xfd, 0xde, 0x03})
		require.NoError(t, err)
		require.Equal(t, "4406fdde03", hex.EncodeToString(encoded))

		decoded, err := DecodeParams(encoded)
		require.NoError(t, err)
		require.Equal(t, []byte{0x06, 0xfd, 0xde, 0x03}, decoded)
	})

	t.Run("string return payload", func(t *testing.T) {
		// offset 0x20, length 7, "DataCap" padded to a word
		raw, err := hex.DecodeString(
			"5860" +
				"0000000000000000000000000000000000000000000000000000000000000020" +
				"0000000000000000000000000000000000000000000000000000000000000007" +
				"4461746143617000000000000000000000000000000000000000000000000000")
		require.NoError(t, err)

		payload, err := DecodeReturn(raw)
		require.NoError(t, err)
		require.Len(t, payload, 96)

		reencoded, err := EncodeReturn(payload)
		require.NoError(t, err)
		require.Equal(t, raw, reencoded)
	})

	t.Run("nil payload encodes as empty byte string", func(t *testing.T) {
		encoded, err := EncodeParams(nil)
		require.NoError(t, err)
		require.Equal(t, []byte{0x40}, encoded)
	})

	t.Run("empty return stays empty", func(t *testing.T) {
		encoded, err := EncodeReturn(nil)
		require.NoError(t, err)
		require.Empty(t, encoded)

		decoded, err := DecodeReturn(nil)
		require.NoError(t, err)
		require.Empty(t, decoded)
	})

	t.Run("trailing bytes are rejected", func(t *testing.T) {
		_, err := DecodeParams([]byte{0x41, 0x01, 0x02})
		require.Error(t, err)

		_, err = DecodeReturn([]byte{0x41, 0x01, 0xde, 0xad})
		require.Error(t, err)

		// a complete envelope is still accepted
		payload, err := DecodeParams([]byte{0x41, 0x01})
		require.NoError(t, err)
		require.Equal(t, []byte{0x01}, payload)
	})
}

func TestCreateReturn(t *testing.T) {
	addr := NewAddress(gethCommon.HexToAddress("0xDAFEA492D9c6733ae3d56b7Ed1ADB60692c98Bc5"))
	ret := NewCreateReturn(ActorID(1002), addr)

	encoded, err := ret.Encode()
	require.NoError(t, err)
	// a three element array
	require.Equal(t, byte(0x83), encoded[0])

	decoded, err := DecodeCreateReturn(encoded)
	require.NoError(t, err)
	require.Equal(t, NewIdentity(ActorID(1002), addr), decoded.Identity())

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := DecodeCreateReturn(append(append([]byte{}, encoded...), 0x00))
		require.Error(t, err)
	})

	t.Run("short eth address", func(t *testing.T) {
		bad := &CreateReturn{ActorID: 1002, EthAddress: []byte{0x01}}
		encoded, err := bad.Encode()
		require.NoError(t, err)
		_, err = DecodeCreateReturn(encoded)
		require.Error(t, err)
	})

	t.Run("undefined actor id", func(t *testing.T) {
		bad := NewCreateReturn(UndefinedActorID, addr)
		encoded, err := bad.Encode()
		require.NoError(t, err)
		_, err = DecodeCreateReturn(encoded)
		require.Error(t, err)
	})
}
