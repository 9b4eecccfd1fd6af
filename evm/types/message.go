package types

import (
	"fmt"
	"math/big"
)

// MethodNum selects the entry point of the receiving actor
type MethodNum uint64

const (
	// MethodSend transfers value without running any code
	MethodSend = MethodNum(0)
	// MethodInvokeContract runs contract code with the enveloped call data
	MethodInvokeContract = MethodNum(2)
	// MethodCreate2 is only accepted by the create endpoint
	MethodCreate2 = MethodNum(3)
)

func (m MethodNum) String() string {
	switch m {
	case MethodSend:
		return "send"
	case MethodInvokeContract:
		return "invoke"
	case MethodCreate2:
		return "create2"
	default:
		return fmt.Sprintf("method(%d)", uint64(m))
	}
}

// DefaultGasLimit is the gas budget attached to harness messages unless
// configured otherwise
const DefaultGasLimit = uint64(1_000_000_000)

// Message captures everything the engine needs to apply a call.
//
// Sequence must equal the sender's current sequence number in the engine,
// otherwise the engine rejects the message before execution.
type Message struct {
	From     ActorID
	To       ActorID
	Sequence uint64
	Value    *big.Int
	GasLimit uint64
	Method   MethodNum
	// Params is the enveloped payload (see EncodeParams)
	Params []byte
}

// NewInvokeMessage constructs a message invoking contract code on the target
func NewInvokeMessage(
	from ActorID,
	to ActorID,
	sequence uint64,
	value *big.Int,
	gasLimit uint64,
	callData []byte,
) (*Message, error) {
	params, err := EncodeParams(callData)
	if err != nil {
		return nil, err
	}
	return &Message{
		From:     from,
		To:       to,
		Sequence: sequence,
		Value:    valueOrZero(value),
		GasLimit: gasLimit,
		Method:   MethodInvokeContract,
		Params:   params,
	}, nil
}

// NewCreate2Message constructs a message for the create endpoint.
// payload is the ABI encoding of (bytes initcode, bytes32 salt).
func NewCreate2Message(
	from ActorID,
	sequence uint64,
	value *big.Int,
	gasLimit uint64,
	payload []byte,
) (*Message, error) {
	params, err := EncodeParams(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		From:     from,
		To:       CreateEndpointID,
		Sequence: sequence,
		Value:    valueOrZero(value),
		GasLimit: gasLimit,
		Method:   MethodCreate2,
		Params:   params,
	}, nil
}

// NewSendMessage constructs a plain value transfer
func NewSendMessage(
	from ActorID,
	to ActorID,
	sequence uint64,
	value *big.Int,
) *Message {
	return &Message{
		From:     from,
		To:       to,
		Sequence: sequence,
		Value:    valueOrZero(value),
		GasLimit: DefaultGasLimit,
		Method:   MethodSend,
	}
}

func (m *Message) String() string {
	return fmt.Sprintf(
		"msg{from: %s, to: %s, seq: %d, method: %s, value: %s, params: %d bytes}",
		m.From, m.To, m.Sequence, m.Method, valueOrZero(m.Value), len(m.Params),
	)
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
