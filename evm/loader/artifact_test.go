package loader_test

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evm-call-harness/evm/abi"
	"github.com/onflow/evm-call-harness/evm/loader"
	"github.com/onflow/evm-call-harness/evm/testutils"
)

func writeFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadHex(t *testing.T) {
	tc := testutils.GetStorageTestContract(t)
	code := hex.EncodeToString(tc.ByteCode)

	for name, content := range map[string]string{
		"bare":            code,
		"prefixed":        "0x" + code,
		"with whitespace": "\n  0x" + code + "\n\n",
		"upper case":      "0X" + code,
	} {
		t.Run(name, func(t *testing.T) {
			artifact, err := loader.Load(writeFile(t, "Storage.bin", content))
			require.NoError(t, err)
			assert.Equal(t, "Storage", artifact.Name)
			assert.Equal(t, tc.ByteCode, artifact.Initcode)
			assert.Empty(t, artifact.Methods)
		})
	}

	t.Run("invalid hex", func(t *testing.T) {
		_, err := loader.Load(writeFile(t, "Bad.hex", "0x6080zz"))
		require.True(t, loader.IsLoadError(err))
	})

	t.Run("odd length", func(t *testing.T) {
		_, err := loader.Load(writeFile(t, "Odd.hex", "0x608"))
		require.True(t, loader.IsLoadError(err))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := loader.Load(writeFile(t, "Empty.bin", "  \n"))
		require.True(t, loader.IsLoadError(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(filepath.Join(t.TempDir(), "Missing.bin"))
		require.True(t, loader.IsLoadError(err))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoadJSON(t *testing.T) {
	tc := testutils.GetStorageTestContract(t)
	code := "0x" + hex.EncodeToString(tc.ByteCode)

	t.Run("solc style", func(t *testing.T) {
		content := fmt.Sprintf(`{"contractName": "Storage", "bytecode": %q, "abi": %s}`, code, tc.ABI)
		artifact, err := loader.Load(writeFile(t, "out.json", content))
		require.NoError(t, err)
		require.Equal(t, "Storage", artifact.Name)
		require.Equal(t, tc.ByteCode, artifact.Initcode)
		require.Len(t, artifact.Methods, 2)

		storeMethod, err := artifact.Method("store")
		require.NoError(t, err)
		require.Equal(t, "store(uint256)", storeMethod.Signature())
		require.Equal(t, "0x6057361d", storeMethod.Selector().String())

		retrieveMethod, err := artifact.Method("retrieve()")
		require.NoError(t, err)
		require.Equal(t, []abi.Type{abi.Uint256}, retrieveMethod.Outputs)

		_, err = artifact.Method("missing")
		require.ErrorIs(t, err, loader.ErrMethodNotFound)

		// a payable constructor without arguments
		require.Nil(t, artifact.Constructor)
		initcode, err := artifact.ConstructorInitcode()
		require.NoError(t, err)
		require.Equal(t, tc.ByteCode, initcode)
		_, err = artifact.ConstructorInitcode(1)
		require.Error(t, err)
	})

	t.Run("foundry style", func(t *testing.T) {
		content := fmt.Sprintf(`{"bytecode": {"object": %q, "linkReferences": {}}}`, code)
		artifact, err := loader.Load(writeFile(t, "Storage.json", content))
		require.NoError(t, err)
		require.Equal(t, "Storage", artifact.Name)
		require.Equal(t, tc.ByteCode, artifact.Initcode)
	})

	t.Run("overloads and constructor arguments", func(t *testing.T) {
		content := fmt.Sprintf(`{"bytecode": %q, "abi": [
			{"type": "constructor", "inputs": [{"name": "owner", "type": "address"}, {"name": "cap", "type": "uint64"}]},
			{"type": "function", "name": "mint", "inputs": [{"name": "to", "type": "address"}], "outputs": []},
			{"type": "function", "name": "mint", "inputs": [{"name": "to", "type": "address"}, {"name": "amount", "type": "uint256"}], "outputs": []},
			{"type": "function", "name": "pair", "inputs": [], "outputs": [{"name": "", "type": "tuple", "components": [{"name": "a", "type": "uint8"}, {"name": "b", "type": "bytes"}]}]}
		]}`, code)
		artifact, err := loader.Load(writeFile(t, "Token.json", content))
		require.NoError(t, err)

		_, err = artifact.Method("mint")
		require.Error(t, err)
		require.NotErrorIs(t, err, loader.ErrMethodNotFound)

		mint, err := artifact.Method("mint(address,uint256)")
		require.NoError(t, err)
		require.Equal(t, "mint", mint.Name)

		pair, err := artifact.Method("pair")
		require.NoError(t, err)
		require.Equal(t, []abi.Type{abi.TupleOf(abi.Uint8, abi.Bytes)}, pair.Outputs)

		require.NotNil(t, artifact.Constructor)
		owner := testutils.RandomCommonAddress(t)
		initcode, err := artifact.ConstructorInitcode(owner, 10)
		require.NoError(t, err)
		require.Equal(t, len(tc.ByteCode)+2*abi.WordSize, len(initcode))
		require.Equal(t, owner.Bytes(), initcode[len(tc.ByteCode)+12:len(tc.ByteCode)+32])

		_, err = artifact.ConstructorInitcode(owner, -1)
		require.True(t, abi.IsEncodeError(err))
	})

	t.Run("malformed artifacts", func(t *testing.T) {
		for name, content := range map[string]string{
			"not json":         `0x6080`,
			"missing bytecode": `{"abi": []}`,
			"numeric bytecode": `{"bytecode": 42}`,
			"empty bytecode":   `{"bytecode": "0x"}`,
			"invalid abi":      fmt.Sprintf(`{"bytecode": %q, "abi": [{"type": "function", "name": "f", "inputs": [{"type": "uint7"}]}]}`, code),
		} {
			_, err := loader.Load(writeFile(t, "Bad.json", content))
			require.True(t, loader.IsLoadError(err), name)
		}
	})
}
