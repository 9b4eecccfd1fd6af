package testutils

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/evm-call-harness/evm/abi"
	"github.com/onflow/evm-call-harness/evm/types"
)

type TestContract struct {
	Code       string
	ABI        string
	ByteCode   []byte
	DeployedAt types.Identity
}

// MakeCallData encodes a call to the method declared by decl, for example
// "store(uint256)"
func (tc *TestContract) MakeCallData(t testing.TB, decl string, args ...interface{}) []byte {
	method, err := abi.ParseMethod(decl)
	require.NoError(t, err)
	data, err := method.EncodeCall(args...)
	require.NoError(t, err)
	return data
}

func (tc *TestContract) MakeStoreCallData(t testing.TB, num *big.Int) []byte {
	return tc.MakeCallData(t, "store(uint256)", num)
}

func (tc *TestContract) MakeRetrieveCallData(t testing.TB) []byte {
	return tc.MakeCallData(t, "retrieve()")
}

func (tc *TestContract) SetDeployedAt(deployedAt types.Identity) {
	tc.DeployedAt = deployedAt
}

func GetStorageTestContract(t testing.TB) *TestContract {
	byteCodes, err := hex.DecodeString("6080604052610150806100136000396000f3fe608060405234801561001057600080fd5b50600436106100365760003560e01c80632e64cec11461003b5780636057361d14610059575b600080fd5b610043610075565b60405161005091906100a1565b60405180910390f35b610073600480360381019061006e91906100ed565b61007e565b005b60008054905090565b8060008190555050565b6000819050919050565b61009b81610088565b82525050565b60006020820190506100b66000830184610092565b92915050565b600080fd5b6100ca81610088565b81146100d557600080fd5b50565b6000813590506100e7816100c1565b92915050565b600060208284031215610103576101026100bc565b5b6000610111848285016100d8565b9150509291505056fea2646970667358221220029e22143e146846aff5dd684a6d627d0bec77c78e5b7ce77674d91c25d7e22264736f6c63430008120033")
	require.NoError(t, err)
	return &TestContract{
		Code: `
			contract Storage {
				uint256 number;
				constructor() payable {
				}
				function store(uint256 num) public {
					number = num;
				}
				function retrieve() public view returns (uint256){
					return number;
				}
			}
		`,

		ABI: `
			[
				{
					"inputs": [],
					"stateMutability": "payable",
					"type": "constructor"
				},
				{
					"inputs": [],
					"name": "retrieve",
					"outputs": [
						{
							"internalType": "uint256",
							"name": "",
							"type": "uint256"
						}
					],
					"stateMutability": "view",
					"type": "function"
				},
				{
					"inputs": [
						{
							"internalType": "uint256",
							"name": "num",
							"type": "uint256"
						}
					],
					"name": "store",
					"outputs": [],
					"stateMutability": "nonpayable",
					"type": "function"
				}
			]
		`,
		ByteCode: byteCodes,
	}
}

// GetNameTestContract returns a contract answering every call with the abi
// encoding of the string "DataCap"
func GetNameTestContract(t testing.TB) *TestContract {
	var name [32]byte
	copy(name[:], "DataCap")

	runtime := []byte{
		0x60, 0x20, 0x60, 0x00, 0x52, // mstore(0x00, 0x20)
		0x60, 0x07, 0x60, 0x20, 0x52, // mstore(0x20, 7)
		0x7f, // push32 "DataCap"
	}
	runtime = append(runtime, name[:]...)
	runtime = append(runtime,
		0x60, 0x40, 0x52, // mstore(0x40, "DataCap")
		0x60, 0x60, 0x60, 0x00, 0xf3, // return(0x00, 0x60)
	)

	return &TestContract{
		Code: `
			contract Name {
				fallback(bytes calldata) external returns (bytes memory) {
					return abi.encode("DataCap");
				}
			}
		`,
		ABI: `
			[
				{
					"inputs": [],
					"name": "name",
					"outputs": [
						{
							"internalType": "string",
							"name": "",
							"type": "string"
						}
					],
					"stateMutability": "view",
					"type": "function"
				}
			]
		`,
		ByteCode: Initcode(t, runtime),
	}
}

// GetRevertTestContract returns a contract reverting every call with
// Error("boom")
func GetRevertTestContract(t testing.TB) *TestContract {
	var selector, message [32]byte
	copy(selector[:], abi.ErrorSelector[:])
	copy(message[:], "boom")

	runtime := []byte{0x7f} // push32 selector
	runtime = append(runtime, selector[:]...)
	runtime = append(runtime,
		0x60, 0x00, 0x52, // mstore(0x00, selector)
		0x60, 0x20, 0x60, 0x04, 0x52, // mstore(0x04, 0x20)
		0x60, 0x04, 0x60, 0x24, 0x52, // mstore(0x24, 4)
		0x7f, // push32 "boom"
	)
	runtime = append(runtime, message[:]...)
	runtime = append(runtime,
		0x60, 0x44, 0x52, // mstore(0x44, "boom")
		0x60, 0x64, 0x60, 0x00, 0xfd, // revert(0x00, 0x64)
	)

	return &TestContract{
		Code: `
			contract Revert {
				fallback() external {
					revert("boom");
				}
			}
		`,
		ABI:      `[]`,
		ByteCode: Initcode(t, runtime),
	}
}

// Initcode wraps runtime code into initcode that installs it
func Initcode(t testing.TB, runtime []byte) []byte {
	require.Less(t, len(runtime), 256)
	size := byte(len(runtime))
	const prefixSize = 12
	code := []byte{
		0x60, size, 0x60, prefixSize, 0x60, 0x00, 0x39, // codecopy(0x00, prefixSize, size)
		0x60, size, 0x60, 0x00, 0xf3, // return(0x00, size)
	}
	return append(code, runtime...)
}

// GetBlockContextTestContract returns a contract answering every call with
// six words: block number, timestamp, coinbase, prevrandao, the hash of the
// previous block and the block gas limit
func GetBlockContextTestContract(t testing.TB) *TestContract {
	runtime := []byte{
		0x43, 0x60, 0x00, 0x52, // mstore(0x00, number)
		0x42, 0x60, 0x20, 0x52, // mstore(0x20, timestamp)
		0x41, 0x60, 0x40, 0x52, // mstore(0x40, coinbase)
		0x44, 0x60, 0x60, 0x52, // mstore(0x60, prevrandao)
		0x60, 0x01, 0x43, 0x03, 0x40, 0x60, 0x80, 0x52, // mstore(0x80, blockhash(sub(number, 1)))
		0x45, 0x60, 0xa0, 0x52, // mstore(0xa0, gaslimit)
		0x60, 0xc0, 0x60, 0x00, 0xf3, // return(0x00, 0xc0)
	}

	return &TestContract{
		Code: `
			contract BlockContext {
				fallback(bytes calldata) external returns (bytes memory) {
					return abi.encode(
						block.number,
						block.timestamp,
						block.coinbase,
						block.prevrandao,
						blockhash(block.number - 1),
						block.gaslimit
					);
				}
			}
		`,
		ABI:      `[]`,
		ByteCode: Initcode(t, runtime),
	}
}
