package handler

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/onflow/evm-call-harness/evm/accounts"
	"github.com/onflow/evm-call-harness/evm/deploy"
	"github.com/onflow/evm-call-harness/evm/types"
	"github.com/onflow/evm-call-harness/module"
)

// DefaultStepTimeout bounds a single engine interaction
const DefaultStepTimeout = 30 * time.Second

// Dispatcher turns deployments and call specs into engine messages, keeps the
// registry's sequence numbers in step with the engine and checks every
// outcome against its expectation.
type Dispatcher struct {
	log         zerolog.Logger
	engine      types.Engine
	registry    *accounts.Registry
	metrics     module.EngineMetrics
	gasLimit    uint64
	stepTimeout time.Duration
}

// Option configures a Dispatcher
type Option func(*Dispatcher) *Dispatcher

// WithGasLimit sets the gas limit attached to every message
func WithGasLimit(gasLimit uint64) Option {
	return func(d *Dispatcher) *Dispatcher {
		d.gasLimit = gasLimit
		return d
	}
}

// WithStepTimeout bounds every engine interaction; zero disables the bound
func WithStepTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) *Dispatcher {
		d.stepTimeout = timeout
		return d
	}
}

// NewDispatcher constructs a dispatcher submitting messages to engine on
// behalf of the accounts tracked by registry
func NewDispatcher(
	log zerolog.Logger,
	engine types.Engine,
	registry *accounts.Registry,
	metrics module.EngineMetrics,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		log:         log.With().Str("component", "dispatcher").Logger(),
		engine:      engine,
		registry:    registry,
		metrics:     metrics,
		gasLimit:    types.DefaultGasLimit,
		stepTimeout: DefaultStepTimeout,
	}
	for _, applyOption := range opts {
		d = applyOption(d)
	}
	return d
}

// Registry returns the registry the dispatcher keeps sequence numbers in
func (d *Dispatcher) Registry() *accounts.Registry {
	return d.registry
}

// NewAccount registers a funded account and installs it in the engine
func (d *Dispatcher) NewAccount(ctx context.Context, funding *big.Int) (types.Identity, error) {
	identity, err := d.registry.Register(funding)
	if err != nil {
		return types.Identity{}, err
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	id, err := d.engine.CreateAccount(ctx, identity.Address, funding)
	if err != nil {
		d.metrics.EngineError("create_account", types.IsRejectedError(err))
		return types.Identity{}, asEngineError("create_account", err)
	}
	if err := d.registry.Bind(id, identity.Address); err != nil {
		return types.Identity{}, err
	}

	identity.ID = id
	d.log.Debug().
		Str("account", identity.String()).
		Str("funding", fundingString(funding)).
		Msg("account created")
	return identity, nil
}

// Deploy submits plan to the create endpoint and returns the deployed
// contract. The deployment must succeed and land on the predicted address,
// otherwise an AssertionFailure is returned together with the result.
func (d *Dispatcher) Deploy(ctx context.Context, plan *deploy.Plan) (types.Identity, *ExecutionResult, error) {
	deployer, err := d.resolve(plan.Deployer)
	if err != nil {
		return types.Identity{}, nil, err
	}

	receipt, seq, err := d.submit(ctx, deployer, func(seq uint64) (*types.Message, error) {
		return types.NewCreate2Message(deployer.ID, seq, plan.Value, d.gasLimit, plan.Payload)
	})
	if err != nil {
		return types.Identity{}, nil, err
	}

	result := &ExecutionResult{
		ExitCode: receipt.ExitCode,
		GasUsed:  receipt.GasUsed,
		Sequence: seq,
	}

	if !receipt.ExitCode.IsSuccess() {
		result.ReturnData, err = types.DecodeReturn(receipt.ReturnData)
		if err != nil {
			return types.Identity{}, result, asEngineError("deploy", err)
		}
		return types.Identity{}, result, ExpectSuccess().Check(result)
	}

	result.ReturnData = receipt.ReturnData
	created, err := types.DecodeCreateReturn(receipt.ReturnData)
	if err != nil {
		return types.Identity{}, result, asEngineError("deploy", err)
	}
	contract := created.Identity()
	if contract.Address != plan.Target.Address {
		return types.Identity{}, result, NewAssertionFailure("deployed address", plan.Target.Address, contract.Address)
	}
	if err := d.registry.Bind(contract.ID, contract.Address); err != nil {
		return types.Identity{}, result, err
	}

	d.log.Debug().
		Str("deployer", deployer.String()).
		Str("contract", contract.String()).
		Hex("salt", plan.Salt[:]).
		Msg("contract deployed")
	return contract, result, nil
}

// Call submits spec on behalf of from and checks the outcome against the
// spec's expectation. The result is returned whenever the engine applied the
// message, including alongside an AssertionFailure.
func (d *Dispatcher) Call(ctx context.Context, spec *CallSpec, from types.Identity) (*ExecutionResult, error) {
	if err := spec.Expect().Validate(); err != nil {
		return nil, err
	}
	originator, err := d.resolve(from)
	if err != nil {
		return nil, err
	}
	target, err := d.resolve(spec.Target())
	if err != nil {
		return nil, err
	}

	receipt, seq, err := d.submit(ctx, originator, func(seq uint64) (*types.Message, error) {
		return types.NewInvokeMessage(originator.ID, target.ID, seq, spec.Value(), d.gasLimit, spec.CallData())
	})
	if err != nil {
		return nil, err
	}

	returnData, err := types.DecodeReturn(receipt.ReturnData)
	if err != nil {
		return nil, asEngineError("call", err)
	}

	result := &ExecutionResult{
		ExitCode:   receipt.ExitCode,
		ReturnData: returnData,
		GasUsed:    receipt.GasUsed,
		Sequence:   seq,
	}
	return result, spec.Expect().Check(result)
}

// submit reserves the originator's sequence number, executes the message and
// commits the sequence number only if the engine applied it
func (d *Dispatcher) submit(
	ctx context.Context,
	from types.Identity,
	build func(seq uint64) (*types.Message, error),
) (*types.Receipt, uint64, error) {
	reservation, err := d.registry.Reserve(from.Address)
	if err != nil {
		return nil, 0, err
	}

	seq := reservation.Sequence()
	msg, err := build(seq)
	if err != nil {
		reservation.Release()
		return nil, 0, fmt.Errorf("could not build message: %w", err)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	receipt, err := d.engine.ExecuteMessage(ctx, msg)
	duration := time.Since(start)
	if err == nil && receipt == nil {
		err = fmt.Errorf("%w: no receipt", types.ErrEngineUnavailable)
	}
	if err != nil {
		reservation.Release()
		rejected := types.IsRejectedError(err)
		d.metrics.EngineError(msg.Method.String(), rejected)
		d.log.Warn().
			Err(err).
			Str("message", msg.String()).
			Bool("rejected", rejected).
			Msg("engine did not apply message")
		return nil, 0, asEngineError(msg.Method.String(), err)
	}
	reservation.Commit()

	d.metrics.MessageExecuted(msg.Method.String(), uint32(receipt.ExitCode), receipt.GasUsed, duration)
	d.log.Debug().
		Str("from", from.String()).
		Str("to", msg.To.String()).
		Uint64("sequence", seq).
		Str("method", msg.Method.String()).
		Str("exit_code", receipt.ExitCode.String()).
		Uint64("gas_used", receipt.GasUsed).
		Dur("duration", duration).
		Msg("message applied")
	return receipt, seq, nil
}

// resolve completes an identity from the registry bindings
func (d *Dispatcher) resolve(identity types.Identity) (types.Identity, error) {
	resolved, err := d.registry.Resolve(identity)
	if err != nil {
		return identity, fmt.Errorf("could not resolve %s: %w", identity, err)
	}
	return resolved, nil
}

func (d *Dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.stepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.stepTimeout)
}

func asEngineError(op string, err error) error {
	if types.IsEngineError(err) {
		return err
	}
	return types.NewEngineError(op, err)
}

func fundingString(funding *big.Int) string {
	if funding == nil {
		return "0"
	}
	return funding.String()
}
