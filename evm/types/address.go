package types

import (
	"fmt"

	gethCommon "github.com/ethereum/go-ethereum/common"
)

// ActorID is the short numeric handle the execution engine assigns to an
// entity once it is known to the engine.
type ActorID uint64

const (
	// UndefinedActorID marks an identity whose numeric handle is not bound yet
	UndefinedActorID = ActorID(0)

	// CreateEndpointID is the well-known handle of the privileged creation endpoint
	CreateEndpointID = ActorID(10)

	// FirstNonSingletonActorID is the first handle the engine hands out to
	// accounts and contracts
	FirstNonSingletonActorID = ActorID(100)
)

func (id ActorID) String() string {
	return fmt.Sprintf("f0%d", uint64(id))
}

// Address is a fixed-length byte address, assigned at creation and stable for
// the lifetime of an account or contract.
type Address gethCommon.Address

// EmptyAddress is an empty evm address
var EmptyAddress = Address(gethCommon.Address{})

// NewAddress constructs a new Address
func NewAddress(addr gethCommon.Address) Address {
	return Address(addr)
}

// NewAddressFromBytes constructs a new address from bytes
func NewAddressFromBytes(inp []byte) Address {
	return Address(gethCommon.BytesToAddress(inp))
}

// Bytes returns a byte slice for the address
func (fa Address) Bytes() []byte {
	return fa[:]
}

// ToCommon returns the geth address
func (fa Address) ToCommon() gethCommon.Address {
	return gethCommon.Address(fa)
}

// String returns the hex encoding of the address
func (fa Address) String() string {
	return fa.ToCommon().Hex()
}

// Identity is the handle of an account or contract. The byte address is known
// from creation; the numeric handle once the engine has seen the entity.
type Identity struct {
	ID      ActorID
	Address Address
}

// NewIdentity constructs a new identity
func NewIdentity(id ActorID, addr Address) Identity {
	return Identity{ID: id, Address: addr}
}

// IsBound returns true if the numeric handle is known
func (i Identity) IsBound() bool {
	return i.ID != UndefinedActorID
}

func (i Identity) String() string {
	if !i.IsBound() {
		return fmt.Sprintf("<unbound>/%s", i.Address)
	}
	return fmt.Sprintf("%s/%s", i.ID, i.Address)
}
