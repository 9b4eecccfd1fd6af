package deploy_test

import (
	"errors"
	"math/big"
	"testing"

	gethABI "github.com/ethereum/go-ethereum/accounts/abi"
	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evm-call-harness/evm/deploy"
	"github.com/onflow/evm-call-harness/evm/types"
)

func TestPredictAddress(t *testing.T) {
	t.Parallel()

	// reference vectors for create2 address derivation
	cases := []struct {
		deployer string
		expected string
	}{
		{"0x0000000000000000000000000000000000000000", "0x4D1A2e2bB4F88F0250f26Ffff098B0b30B26BF38"},
		{"0xdeadbeef00000000000000000000000000000000", "0xB928f69Bb1D91Cd65274e3c79d8986362984fDA3"},
	}
	for _, c := range cases {
		addr := deploy.PredictAddress(
			types.NewAddress(gethCommon.HexToAddress(c.deployer)),
			[]byte{0x00},
			deploy.Salt{},
		)
		require.Equal(t, gethCommon.HexToAddress(c.expected), addr.ToCommon())
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	deployer := types.NewIdentity(100, types.NewAddress(gethCommon.HexToAddress("0xDAFEA492D9c6733ae3d56b7Ed1ADB60692c98Bc5")))
	initcode := []byte{0x60, 0x80, 0x60, 0x40, 0x52}
	salt := deploy.SaltFromUint64(7)
	planner := deploy.NewPlanner()

	t.Run("payload is the (bytes, bytes32) tuple", func(t *testing.T) {
		t.Parallel()

		plan, err := planner.Plan(deployer, initcode, salt, big.NewInt(5))
		require.NoError(t, err)

		bytesType, err := gethABI.NewType("bytes", "", nil)
		require.NoError(t, err)
		bytes32Type, err := gethABI.NewType("bytes32", "", nil)
		require.NoError(t, err)
		expected, err := gethABI.Arguments{{Type: bytesType}, {Type: bytes32Type}}.Pack(initcode, [32]byte(salt))
		require.NoError(t, err)
		require.Equal(t, expected, plan.Payload)

		code, decodedSalt, err := deploy.DecodePayload(plan.Payload)
		require.NoError(t, err)
		require.Equal(t, initcode, code)
		require.Equal(t, salt, decodedSalt)

		require.Equal(t, 0, big.NewInt(5).Cmp(plan.Value))
		require.Equal(t, deployer, plan.Deployer)
	})

	t.Run("target is an unbound placeholder at the predicted address", func(t *testing.T) {
		t.Parallel()

		plan, err := planner.Plan(deployer, initcode, salt, nil)
		require.NoError(t, err)
		require.False(t, plan.Target.IsBound())
		require.Equal(t, deploy.PredictAddress(deployer.Address, initcode, salt), plan.Target.Address)
		require.Equal(t, 0, plan.Value.Sign())
	})

	t.Run("planning is deterministic", func(t *testing.T) {
		t.Parallel()

		p1, err := planner.Plan(deployer, initcode, salt, nil)
		require.NoError(t, err)
		p2, err := deploy.NewPlanner().Plan(deployer, initcode, salt, nil)
		require.NoError(t, err)
		require.Equal(t, p1, p2)

		p3, err := planner.Plan(deployer, initcode, deploy.SaltFromUint64(8), nil)
		require.NoError(t, err)
		require.NotEqual(t, p1.Target.Address, p3.Target.Address)
	})

	t.Run("invalid plans", func(t *testing.T) {
		t.Parallel()

		_, err := planner.Plan(deployer, nil, salt, nil)
		require.True(t, errors.Is(err, deploy.ErrInvalidPlan))

		_, err = planner.Plan(deployer, initcode, salt, big.NewInt(-1))
		require.True(t, errors.Is(err, deploy.ErrInvalidPlan))
	})
}

func TestNewSalt(t *testing.T) {
	t.Parallel()

	s, err := deploy.NewSalt([]byte{0x01, 0x02})
	require.NoError(t, err)
	require.Equal(t, byte(0x01), s[30])
	require.Equal(t, byte(0x02), s[31])
	require.Equal(t, deploy.SaltFromUint64(0x0102), s)

	_, err = deploy.NewSalt(make([]byte, 33))
	require.True(t, errors.Is(err, deploy.ErrInvalidPlan))
}
