package testutils

import (
	"context"
	cryptoRand "crypto/rand"
	"math/big"
	"math/rand"
	"testing"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/onflow/evm-call-harness/evm/types"
)

type TestEngine struct {
	CreateAccountFunc  func(ctx context.Context, addr types.Address, balance *big.Int) (types.ActorID, error)
	ExecuteMessageFunc func(ctx context.Context, msg *types.Message) (*types.Receipt, error)
}

var _ types.Engine = &TestEngine{}

// CreateAccount installs a funded account
func (en *TestEngine) CreateAccount(ctx context.Context, addr types.Address, balance *big.Int) (types.ActorID, error) {
	if en.CreateAccountFunc == nil {
		panic("method not set")
	}
	return en.CreateAccountFunc(ctx, addr, balance)
}

// ExecuteMessage applies a message
func (en *TestEngine) ExecuteMessage(ctx context.Context, msg *types.Message) (*types.Receipt, error) {
	if en.ExecuteMessageFunc == nil {
		panic("method not set")
	}
	return en.ExecuteMessageFunc(ctx, msg)
}

// NewSequentialAccountCreator returns a CreateAccountFunc handing out
// handles in order starting at types.FirstNonSingletonActorID
func NewSequentialAccountCreator() func(context.Context, types.Address, *big.Int) (types.ActorID, error) {
	next := atomic.NewUint64(uint64(types.FirstNonSingletonActorID))
	return func(context.Context, types.Address, *big.Int) (types.ActorID, error) {
		return types.ActorID(next.Inc() - 1), nil
	}
}

// ReturnReceipt builds a receipt with enveloped return data
func ReturnReceipt(t testing.TB, code types.ExitCode, data []byte) *types.Receipt {
	ret, err := types.EncodeReturn(data)
	require.NoError(t, err)
	return &types.Receipt{
		ExitCode:   code,
		ReturnData: ret,
		GasUsed:    RandomGas(100_000),
	}
}

func RandomCommonHash(t testing.TB) gethCommon.Hash {
	ret := gethCommon.Hash{}
	_, err := cryptoRand.Read(ret[:gethCommon.HashLength])
	require.NoError(t, err)
	return ret
}

func RandomAddress(t testing.TB) types.Address {
	return types.NewAddress(RandomCommonAddress(t))
}

func RandomCommonAddress(t testing.TB) gethCommon.Address {
	ret := gethCommon.Address{}
	_, err := cryptoRand.Read(ret[:gethCommon.AddressLength])
	require.NoError(t, err)
	return ret
}

func RandomGas(limit int64) uint64 {
	return uint64(rand.Int63n(limit) + 1)
}

func RandomData(t testing.TB) []byte {
	// byte size [1, 100]
	size := rand.Intn(100) + 1
	ret := make([]byte, size)
	_, err := cryptoRand.Read(ret[:])
	require.NoError(t, err)
	return ret
}
