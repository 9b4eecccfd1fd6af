package deploy

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/onflow/evm-call-harness/evm/abi"
	"github.com/onflow/evm-call-harness/evm/types"
)

// SaltLength is the byte length of a deployment salt
const SaltLength = 32

// Salt is mixed into the address derivation of a deployment
type Salt [SaltLength]byte

// ErrInvalidPlan is returned for deployments that can not be planned
var ErrInvalidPlan = errors.New("invalid deployment plan")

// create2Args is the argument tuple of the create endpoint: (bytes initcode, bytes32 salt)
var create2Args = []abi.Type{abi.Bytes, abi.Bytes32}

// NewSalt left pads b into a salt
func NewSalt(b []byte) (Salt, error) {
	var s Salt
	if len(b) > SaltLength {
		return s, fmt.Errorf("%w: salt has %d bytes, at most %d allowed", ErrInvalidPlan, len(b), SaltLength)
	}
	copy(s[SaltLength-len(b):], b)
	return s, nil
}

// SaltFromUint64 returns the salt holding n as a big-endian word
func SaltFromUint64(n uint64) Salt {
	var s Salt
	new(big.Int).SetUint64(n).FillBytes(s[:])
	return s
}

// Plan is a deployment ready to be dispatched.
//
// Target is a placeholder: its address is the predicted create2 address and
// its numeric handle stays unbound until the engine has applied the
// deployment and reported the handle it assigned.
type Plan struct {
	Deployer types.Identity
	Initcode []byte
	Salt     Salt
	Value    *big.Int
	// Payload is the argument tuple for the create endpoint
	Payload []byte
	Target  types.Identity
}

// Planner builds deployment plans
type Planner struct{}

// NewPlanner constructs a planner
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan computes the deployment payload and the predicted target of deploying
// initcode with salt from deployer, transferring value to the new contract.
func (p *Planner) Plan(deployer types.Identity, initcode []byte, salt Salt, value *big.Int) (*Plan, error) {
	if len(initcode) == 0 {
		return nil, fmt.Errorf("%w: empty initcode", ErrInvalidPlan)
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", ErrInvalidPlan, value)
	}

	payload, err := abi.Encode(create2Args, []interface{}{initcode, salt})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	return &Plan{
		Deployer: deployer,
		Initcode: append([]byte{}, initcode...),
		Salt:     salt,
		Value:    new(big.Int).Set(value),
		Payload:  payload,
		Target:   types.NewIdentity(types.UndefinedActorID, PredictAddress(deployer.Address, initcode, salt)),
	}, nil
}

// PredictAddress returns the create2 address of initcode deployed with salt by deployer
func PredictAddress(deployer types.Address, initcode []byte, salt Salt) types.Address {
	return types.NewAddress(crypto.CreateAddress2(deployer.ToCommon(), salt, crypto.Keccak256(initcode)))
}

// DecodePayload splits a create endpoint argument tuple into initcode and salt
func DecodePayload(payload []byte) ([]byte, Salt, error) {
	var salt Salt
	values, err := abi.Decode(create2Args, payload)
	if err != nil {
		return nil, salt, err
	}
	copy(salt[:], values[1].([]byte))
	return values[0].([]byte), salt, nil
}
