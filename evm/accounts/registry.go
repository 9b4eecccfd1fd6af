package accounts

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/onflow/evm-call-harness/evm/types"
)

var (
	// ErrUnknownAccount is returned for addresses that were never registered
	ErrUnknownAccount = errors.New("unknown account")

	// ErrBindingConflict is returned when a numeric handle or an address is
	// already bound to something else
	ErrBindingConflict = errors.New("conflicting identity binding")
)

// DefaultSeed is the key derivation seed used when none is configured
const DefaultSeed = "evm-call-harness"

type account struct {
	// held from Reserve until Commit or Release
	mu       sync.Mutex
	key      *ecdsa.PrivateKey
	address  types.Address
	funding  *big.Int
	sequence uint64
}

// Registry tracks test accounts, their sequence numbers and the bindings
// between numeric handles and byte addresses. Registry state is process
// local and is safe for concurrent use; calls originated by the same account
// are serialized.
type Registry struct {
	mu        sync.RWMutex
	seed      []byte
	accounts  []*account
	byAddress map[types.Address]*account
	idToAddr  map[types.ActorID]types.Address
	addrToID  map[types.Address]types.ActorID
}

// NewRegistry constructs a registry whose account keys are derived from seed.
// Two registries with the same seed register the same addresses in the same
// order.
func NewRegistry(seed string) *Registry {
	if seed == "" {
		seed = DefaultSeed
	}
	return &Registry{
		seed:      []byte(seed),
		byAddress: make(map[types.Address]*account),
		idToAddr:  make(map[types.ActorID]types.Address),
		addrToID:  make(map[types.Address]types.ActorID),
	}
}

// Register creates a new account with the given initial funding and a zero
// sequence number. The returned identity is unbound until the engine assigns
// a numeric handle (see Bind).
func (r *Registry) Register(funding *big.Int) (types.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, err := r.deriveKey(uint64(len(r.accounts)))
	if err != nil {
		return types.Identity{}, err
	}
	acc := &account{
		key:     key,
		address: types.NewAddress(crypto.PubkeyToAddress(key.PublicKey)),
		funding: new(big.Int),
	}
	if funding != nil {
		acc.funding.Set(funding)
	}
	if _, ok := r.byAddress[acc.address]; ok {
		return types.Identity{}, fmt.Errorf("%w: address %s already registered", ErrBindingConflict, acc.address)
	}
	r.accounts = append(r.accounts, acc)
	r.byAddress[acc.address] = acc
	return types.NewIdentity(types.UndefinedActorID, acc.address), nil
}

func (r *Registry) deriveKey(index uint64) (*ecdsa.PrivateKey, error) {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	key, err := crypto.ToECDSA(crypto.Keccak256(r.seed, idx[:]))
	if err != nil {
		return nil, fmt.Errorf("failed to derive key for account %d: %w", index, err)
	}
	return key, nil
}

// Bind records that the engine bound id to addr. Binding the same pair again
// is a no-op; an existing binding is never changed.
func (r *Registry) Bind(id types.ActorID, addr types.Address) error {
	if id == types.UndefinedActorID {
		return fmt.Errorf("can not bind undefined actor id to %s", addr)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if bound, ok := r.idToAddr[id]; ok && bound != addr {
		return fmt.Errorf("%w: %s is bound to %s, not %s", ErrBindingConflict, id, bound, addr)
	}
	if bound, ok := r.addrToID[addr]; ok && bound != id {
		return fmt.Errorf("%w: %s is bound to %s, not %s", ErrBindingConflict, addr, bound, id)
	}
	r.idToAddr[id] = addr
	r.addrToID[addr] = id
	return nil
}

// Resolve fills in whichever half of the identity is missing from the
// recorded bindings
func (r *Registry) Resolve(identity types.Identity) (types.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if identity.IsBound() {
		addr, ok := r.idToAddr[identity.ID]
		if !ok {
			return identity, fmt.Errorf("%w: %s", types.ErrUnknownActor, identity.ID)
		}
		return types.NewIdentity(identity.ID, addr), nil
	}
	id, ok := r.addrToID[identity.Address]
	if !ok {
		return identity, fmt.Errorf("%w: %s", types.ErrUnknownActor, identity.Address)
	}
	return types.NewIdentity(id, identity.Address), nil
}

func (r *Registry) lookup(addr types.Address) (*account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.byAddress[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, addr)
	}
	return acc, nil
}

// Reservation holds an account's current sequence number for one call.
// Exactly one of Commit or Release must be called.
type Reservation struct {
	acc      *account
	sequence uint64
	done     bool
}

// Sequence returns the reserved sequence number
func (res *Reservation) Sequence() uint64 {
	return res.sequence
}

// Commit consumes the sequence number. It is called once the engine has
// applied the message, whatever the exit code.
func (res *Reservation) Commit() {
	if res.done {
		return
	}
	res.done = true
	res.acc.sequence++
	res.acc.mu.Unlock()
}

// Release gives the sequence number back, for messages the engine rejected
// before execution
func (res *Reservation) Release() {
	if res.done {
		return
	}
	res.done = true
	res.acc.mu.Unlock()
}

// Reserve returns a reservation of the account's current sequence number.
// Other calls from the same account block until the reservation is committed
// or released.
func (r *Registry) Reserve(addr types.Address) (*Reservation, error) {
	acc, err := r.lookup(addr)
	if err != nil {
		return nil, err
	}
	acc.mu.Lock()
	return &Reservation{acc: acc, sequence: acc.sequence}, nil
}

// NextSequence returns the current sequence number and increments it
func (r *Registry) NextSequence(addr types.Address) (uint64, error) {
	res, err := r.Reserve(addr)
	if err != nil {
		return 0, err
	}
	seq := res.Sequence()
	res.Commit()
	return seq, nil
}

// Sequence returns the current sequence number without reserving it
func (r *Registry) Sequence(addr types.Address) (uint64, error) {
	acc, err := r.lookup(addr)
	if err != nil {
		return 0, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.sequence, nil
}

// Funding returns the initial funding of the account
func (r *Registry) Funding(addr types.Address) (*big.Int, error) {
	acc, err := r.lookup(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acc.funding), nil
}

// PrivateKey returns the account key
func (r *Registry) PrivateKey(addr types.Address) (*ecdsa.PrivateKey, error) {
	acc, err := r.lookup(addr)
	if err != nil {
		return nil, err
	}
	return acc.key, nil
}

// Accounts returns the identities of all registered accounts in registration
// order
func (r *Registry) Accounts() []types.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.Identity, len(r.accounts))
	for i, acc := range r.accounts {
		ids[i] = types.NewIdentity(r.addrToID[acc.address], acc.address)
	}
	return ids
}
