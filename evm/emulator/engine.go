package emulator

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	gethCommon "github.com/ethereum/go-ethereum/common"
	gethCore "github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethState "github.com/ethereum/go-ethereum/core/state"
	gethTypes "github.com/ethereum/go-ethereum/core/types"
	gethVM "github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"

	"github.com/onflow/evm-call-harness/evm/deploy"
	"github.com/onflow/evm-call-harness/evm/types"
)

// Engine is an in-process message execution engine backed by the go-ethereum
// EVM and an in-memory state database.
//
// Messages are applied one at a time. Accounts and contracts are addressed by
// numeric handles, assigned in creation order starting at
// types.FirstNonSingletonActorID.
type Engine struct {
	mu     sync.Mutex
	config *Config
	state  *gethState.StateDB
	book   *addressBook
}

var _ types.Engine = &Engine{}

// NewEngine constructs a freshly initialized engine with an empty state
func NewEngine(opts ...Option) (*Engine, error) {
	state, err := gethState.New(
		gethTypes.EmptyRootHash,
		gethState.NewDatabase(rawdb.NewMemoryDatabase()),
		nil)
	if err != nil {
		return nil, types.NewEngineError("init", err)
	}
	return &Engine{
		config: NewConfig(opts...),
		state:  state,
		book:   newAddressBook(),
	}, nil
}

// Factory returns an engine factory, every engine it builds starts from an
// empty state
func Factory(opts ...Option) types.EngineFactory {
	return func() (types.Engine, error) {
		return NewEngine(opts...)
	}
}

// CreateAccount installs a funded externally owned account
func (e *Engine) CreateAccount(ctx context.Context, addr types.Address, balance *big.Int) (types.ActorID, error) {
	if err := ctx.Err(); err != nil {
		return types.UndefinedActorID, types.NewEngineError("create account", err)
	}
	if balance != nil && balance.Sign() < 0 {
		return types.UndefinedActorID, types.NewEngineError("create account", fmt.Errorf("negative balance %s", balance))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a := addr.ToCommon()
	if _, ok := e.book.idOf(a); ok || e.state.Exist(a) {
		return types.UndefinedActorID, types.NewEngineError("create account", fmt.Errorf("address %s already exists", addr))
	}

	e.state.CreateAccount(a)
	if balance != nil {
		e.state.AddBalance(a, balance)
	}
	e.state.Finalise(true)
	return e.book.bind(a), nil
}

// ExecuteMessage applies a message. Rejections (unknown sender, sequence
// mismatch, malformed params, unsupported method, failed validation) are
// returned as errors and leave the state untouched.
func (e *Engine) ExecuteMessage(ctx context.Context, msg *types.Message) (*types.Receipt, error) {
	if msg == nil {
		return nil, types.NewRejectionErrorf("nil message")
	}
	if err := ctx.Err(); err != nil {
		return nil, types.NewEngineError("execute", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	from, ok := e.book.addressOf(msg.From)
	if !ok {
		return nil, types.NewRejectionErrorf("unknown sender %s", msg.From)
	}
	if nonce := e.state.GetNonce(from); nonce != msg.Sequence {
		return nil, types.NewRejectionErrorf("sender %s expects sequence %d, got %d", msg.From, nonce, msg.Sequence)
	}
	if msg.Value != nil && msg.Value.Sign() < 0 {
		return nil, types.NewRejectionErrorf("negative value %s", msg.Value)
	}
	switch msg.Method {
	case types.MethodSend, types.MethodInvokeContract, types.MethodCreate2:
	default:
		return nil, types.NewRejectionErrorf("unsupported method %s", msg.Method)
	}
	payload, err := types.DecodeParams(msg.Params)
	if err != nil {
		return nil, types.NewRejectionErrorf("%v", err)
	}
	if msg.Method == types.MethodSend && len(payload) > 0 {
		return nil, types.NewRejectionErrorf("send carries %d bytes of params", len(payload))
	}

	proc := e.newProcedure(ctx, from, msg)
	defer proc.stop()

	snapshot := e.state.Snapshot()
	receipt, err := proc.apply(payload)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		e.state.RevertToSnapshot(snapshot)
		if proc.created != types.UndefinedActorID {
			e.book.unbind(proc.created)
		}
		return nil, types.NewEngineError("execute", err)
	}

	e.state.Finalise(true)
	receipt.StateRoot = e.state.IntermediateRoot(true)
	return receipt, nil
}

// BalanceOf returns the balance of an actor
func (e *Engine) BalanceOf(id types.ActorID) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	addr, ok := e.book.addressOf(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownActor, id)
	}
	return new(big.Int).Set(e.state.GetBalance(addr)), nil
}

// NonceOf returns the sequence number an actor's next message must carry
func (e *Engine) NonceOf(id types.ActorID) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	addr, ok := e.book.addressOf(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrUnknownActor, id)
	}
	return e.state.GetNonce(addr), nil
}

// CodeOf returns the runtime code of an actor
func (e *Engine) CodeOf(id types.ActorID) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	addr, ok := e.book.addressOf(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownActor, id)
	}
	return e.state.GetCode(addr), nil
}

// Resolve returns the identity bound to a handle
func (e *Engine) Resolve(id types.ActorID) (types.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	addr, ok := e.book.addressOf(id)
	if !ok {
		return types.Identity{}, fmt.Errorf("%w: %s", types.ErrUnknownActor, id)
	}
	return types.NewIdentity(id, types.NewAddress(addr)), nil
}

// StateRoot returns the root of the current state
func (e *Engine) StateRoot() gethCommon.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.IntermediateRoot(true)
}

type procedure struct {
	engine *Engine
	evm    *gethVM.EVM
	from   gethCommon.Address
	msg    *types.Message
	done   chan struct{}
	// handle bound by a successful create2
	created types.ActorID
}

func (e *Engine) newProcedure(ctx context.Context, from gethCommon.Address, msg *types.Message) *procedure {
	cfg := e.config
	proc := &procedure{
		engine: e,
		evm: gethVM.NewEVM(
			*cfg.BlockContext,
			gethVM.TxContext{Origin: from, GasPrice: new(big.Int)},
			e.state,
			cfg.ChainConfig,
			cfg.EVMConfig,
		),
		from: from,
		msg:  msg,
		done: make(chan struct{}),
	}

	// abort the interpreter once the caller gives up
	go func() {
		select {
		case <-ctx.Done():
			proc.evm.Cancel()
		case <-proc.done:
		}
	}()
	return proc
}

func (proc *procedure) stop() {
	close(proc.done)
}

func (proc *procedure) value() *big.Int {
	if proc.msg.Value == nil {
		return new(big.Int)
	}
	return proc.msg.Value
}

// consume marks the message as applied without running any code
func (proc *procedure) consume(code types.ExitCode) *types.Receipt {
	proc.engine.state.SetNonce(proc.from, proc.msg.Sequence+1)
	return &types.Receipt{ExitCode: code}
}

func (proc *procedure) apply(payload []byte) (*types.Receipt, error) {
	if proc.msg.To == types.CreateEndpointID {
		if proc.msg.Method != types.MethodCreate2 {
			return proc.consume(types.ExitUsrUnhandledMessage), nil
		}
		return proc.create2(payload)
	}
	if proc.msg.Method == types.MethodCreate2 {
		return proc.consume(types.ExitUsrUnhandledMessage), nil
	}

	to, ok := proc.engine.book.addressOf(proc.msg.To)
	if !ok {
		return proc.consume(types.ExitSysInvalidReceiver), nil
	}
	if proc.engine.state.GetBalance(proc.from).Cmp(proc.value()) < 0 {
		return proc.consume(types.ExitSysInsufficientFunds), nil
	}
	return proc.call(to, payload)
}

func (proc *procedure) call(to gethCommon.Address, payload []byte) (*types.Receipt, error) {
	msg := &gethCore.Message{
		From:      proc.from,
		To:        &to,
		Nonce:     proc.msg.Sequence,
		Value:     proc.value(),
		GasLimit:  proc.msg.GasLimit,
		GasPrice:  new(big.Int),
		GasFeeCap: new(big.Int),
		GasTipCap: new(big.Int),
		Data:      payload,
	}
	gasPool := new(gethCore.GasPool).AddGas(proc.engine.config.BlockContext.GasLimit)
	execResult, err := gethCore.NewStateTransition(proc.evm, msg, gasPool).TransitionDb()
	if err != nil {
		// validation failure, nothing was applied
		return nil, fmt.Errorf("%w: %v", types.ErrMessageRejected, err)
	}

	ret, err := types.EncodeReturn(execResult.ReturnData)
	if err != nil {
		return nil, err
	}
	return &types.Receipt{
		ExitCode:   exitCodeOf(execResult.Err),
		ReturnData: ret,
		GasUsed:    execResult.UsedGas,
	}, nil
}

func (proc *procedure) create2(payload []byte) (*types.Receipt, error) {
	initcode, salt, err := deploy.DecodePayload(payload)
	if err != nil {
		return proc.consume(types.ExitUsrIllegalArgument), nil
	}

	state := proc.engine.state
	rules := proc.engine.config.ChainRules()
	state.Prepare(rules, proc.from, proc.evm.Context.Coinbase, nil, gethVM.ActivePrecompiles(rules), nil)

	ret, addr, leftOverGas, vmErr := proc.evm.Create2(
		gethVM.AccountRef(proc.from),
		initcode,
		proc.msg.GasLimit,
		proc.value(),
		new(uint256.Int).SetBytes32(salt[:]),
	)
	// create2 only bumps the nonce once its pre checks pass
	state.SetNonce(proc.from, proc.msg.Sequence+1)

	receipt := &types.Receipt{
		ExitCode: exitCodeOf(vmErr),
		GasUsed:  proc.msg.GasLimit - leftOverGas,
	}
	if vmErr != nil {
		receipt.ReturnData, err = types.EncodeReturn(ret)
		return receipt, err
	}

	id := proc.engine.book.bind(addr)
	proc.created = id
	receipt.ReturnData, err = types.NewCreateReturn(id, types.NewAddress(addr)).Encode()
	return receipt, err
}

// addressBook binds engine handles to addresses
type addressBook struct {
	next   types.ActorID
	byID   map[types.ActorID]gethCommon.Address
	byAddr map[gethCommon.Address]types.ActorID
}

func newAddressBook() *addressBook {
	return &addressBook{
		next:   types.FirstNonSingletonActorID,
		byID:   make(map[types.ActorID]gethCommon.Address),
		byAddr: make(map[gethCommon.Address]types.ActorID),
	}
}

func (b *addressBook) bind(addr gethCommon.Address) types.ActorID {
	if id, ok := b.byAddr[addr]; ok {
		return id
	}
	id := b.next
	b.next++
	b.byID[id] = addr
	b.byAddr[addr] = id
	return id
}

func (b *addressBook) unbind(id types.ActorID) {
	addr, ok := b.byID[id]
	if !ok {
		return
	}
	delete(b.byID, id)
	delete(b.byAddr, addr)
	if id == b.next-1 {
		b.next--
	}
}

func (b *addressBook) addressOf(id types.ActorID) (gethCommon.Address, bool) {
	addr, ok := b.byID[id]
	return addr, ok
}

func (b *addressBook) idOf(addr gethCommon.Address) (types.ActorID, bool) {
	id, ok := b.byAddr[addr]
	return id, ok
}
