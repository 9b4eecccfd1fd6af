package types

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// EncodeParams wraps a raw payload into the params envelope (a CBOR byte string).
func EncodeParams(payload []byte) ([]byte, error) {
	if payload == nil {
		payload = []byte{}
	}
	encoded, err := cbor.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params envelope: %w", err)
	}
	return encoded, nil
}

// DecodeParams unwraps the params envelope. An empty input is an empty payload.
func DecodeParams(params []byte) ([]byte, error) {
	if len(params) == 0 {
		return []byte{}, nil
	}
	var payload []byte
	if err := unmarshalExact(params, &payload); err != nil {
		return nil, fmt.Errorf("malformed params envelope: %w", err)
	}
	if payload == nil {
		payload = []byte{}
	}
	return payload, nil
}

// EncodeReturn wraps contract return data. Empty return data stays empty.
func EncodeReturn(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return EncodeParams(data)
}

// DecodeReturn unwraps contract return data produced by EncodeReturn
func DecodeReturn(data []byte) ([]byte, error) {
	return DecodeParams(data)
}

// CreateReturn is the value returned by the create endpoint
type CreateReturn struct {
	_             struct{} `cbor:",toarray"`
	ActorID       uint64
	RobustAddress []byte
	EthAddress    []byte
}

// NewCreateReturn constructs the create endpoint return value
func NewCreateReturn(id ActorID, addr Address) *CreateReturn {
	return &CreateReturn{
		ActorID:    uint64(id),
		EthAddress: addr.Bytes(),
	}
}

// Identity returns the identity of the created contract
func (r *CreateReturn) Identity() Identity {
	return NewIdentity(ActorID(r.ActorID), NewAddressFromBytes(r.EthAddress))
}

// Encode encodes the create return as a CBOR tuple
func (r *CreateReturn) Encode() ([]byte, error) {
	return cbor.Marshal(r)
}

// DecodeCreateReturn decodes a create endpoint return value
func DecodeCreateReturn(data []byte) (*CreateReturn, error) {
	ret := &CreateReturn{}
	if err := unmarshalExact(data, ret); err != nil {
		return nil, fmt.Errorf("malformed create return: %w", err)
	}
	if len(ret.EthAddress) != len(Address{}) {
		return nil, fmt.Errorf("malformed create return: eth address has %d bytes", len(ret.EthAddress))
	}
	if ActorID(ret.ActorID) == UndefinedActorID {
		return nil, fmt.Errorf("malformed create return: undefined actor id")
	}
	return ret, nil
}

// unmarshalExact decodes a single CBOR item that must span all of data
func unmarshalExact(data []byte, v interface{}) error {
	dec := cbor.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if n := dec.NumBytesRead(); n != len(data) {
		return fmt.Errorf("%d trailing bytes after the cbor item", len(data)-n)
	}
	return nil
}
