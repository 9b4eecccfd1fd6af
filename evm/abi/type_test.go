package abi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewType(t *testing.T) {
	t.Parallel()

	t.Run("canonical names", func(t *testing.T) {
		t.Parallel()

		for name, canonical := range map[string]string{
			"uint":                "uint256",
			"int":                 "int256",
			"uint8":               "uint8",
			"bytes4":              "bytes4",
			"address[]":           "address[]",
			"string[2][]":         "string[2][]",
			"(address,uint64)[2]": "(address,uint64)[2]",
			"(uint, (bool,bytes))": "(uint256,(bool,bytes))",
		} {
			typ, err := NewType(name)
			require.NoError(t, err, name)
			assert.Equal(t, canonical, typ.String(), name)
		}
	})

	t.Run("invalid names", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{
			"", "uint7", "uint264", "int0", "bytes0", "bytes33", "uint256[0]",
			"uint256[", "()", "(uint256", "foo", "uint256 x", "address[-1]",
		} {
			_, err := NewType(name)
			assert.Error(t, err, name)
		}
	})

	t.Run("dynamic types", func(t *testing.T) {
		t.Parallel()

		for name, dynamic := range map[string]bool{
			"uint256":           false,
			"bytes32":           false,
			"bytes":             true,
			"string":            true,
			"uint256[]":         true,
			"uint256[3]":        false,
			"string[3]":         true,
			"(uint256,address)": false,
			"(uint256,bytes)":   true,
		} {
			assert.Equal(t, dynamic, MustNewType(name).IsDynamic(), name)
		}
	})

	t.Run("head sizes", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 96, MustNewType("uint256[3]").headSize())
		assert.Equal(t, 64, MustNewType("(uint256,address)").headSize())
		assert.Equal(t, 32, MustNewType("string[3]").headSize())
	})

	t.Run("array lengths are bounded by the head size", func(t *testing.T) {
		t.Parallel()

		limit := MaxArrayHeadSize / WordSize
		_, err := NewType(fmt.Sprintf("uint256[%d]", limit))
		require.NoError(t, err)

		for _, name := range []string{
			fmt.Sprintf("uint256[%d]", limit+1),
			"uint256[576460752303423488]",
			"uint256[65536][65536]",
			"(uint256,address)[1073741824]",
		} {
			_, err := NewType(name)
			assert.Error(t, err, name)
		}

		_, err = ParseMethod("f()(uint256[576460752303423488])")
		require.Error(t, err)
	})
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	t.Run("declaration forms", func(t *testing.T) {
		t.Parallel()

		m, err := ParseMethod("transfer(address,uint) returns (bool)")
		require.NoError(t, err)
		assert.Equal(t, "transfer", m.Name)
		assert.Equal(t, "transfer(address,uint256)", m.Signature())
		assert.Equal(t, []Type{Bool}, m.Outputs)
		assert.Equal(t, "transfer(address,uint256) returns (bool)", m.String())

		m, err = ParseMethod("name()(string)")
		require.NoError(t, err)
		assert.Empty(t, m.Inputs)
		assert.Equal(t, []Type{String}, m.Outputs)

		m, err = ParseMethod("store(uint256)")
		require.NoError(t, err)
		assert.Empty(t, m.Outputs)
	})

	t.Run("invalid declarations", func(t *testing.T) {
		t.Parallel()

		for _, decl := range []string{
			"(uint256)", "1abc()", "foo", "foo(uint256)x", "foo(uint256)(bool", "foo bar(uint256)",
		} {
			_, err := ParseMethod(decl)
			assert.Error(t, err, decl)
		}
	})

	t.Run("encode and decode through the method", func(t *testing.T) {
		t.Parallel()

		m := MustParseMethod("balances(address[])(uint256[])")
		ret, err := m.EncodeReturn([]interface{}{1, 2})
		require.NoError(t, err)

		values, err := m.DecodeReturn(ret)
		require.NoError(t, err)
		require.Len(t, values, 1)
		require.Len(t, values[0], 2)
	})
}
