package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/onflow/evm-call-harness/evm/accounts"
	"github.com/onflow/evm-call-harness/evm/deploy"
	"github.com/onflow/evm-call-harness/evm/handler"
	"github.com/onflow/evm-call-harness/evm/types"
	"github.com/onflow/evm-call-harness/module"
)

// Runner runs scenarios step by step, each on a freshly initialized engine
// with its own account registry
type Runner struct {
	log     zerolog.Logger
	factory types.EngineFactory
	metrics module.HarnessMetrics
	opts    []handler.Option
}

// NewRunner constructs a runner creating one engine per run with factory.
// opts configure the dispatcher of every run.
func NewRunner(
	log zerolog.Logger,
	factory types.EngineFactory,
	metrics module.HarnessMetrics,
	opts ...handler.Option,
) *Runner {
	return &Runner{
		log:     log.With().Str("component", "scenario_runner").Logger(),
		factory: factory,
		metrics: metrics,
		opts:    opts,
	}
}

// Run validates s and runs it against a new engine.
//
// An error is returned when the scenario is invalid or its accounts can not
// be set up, before any step ran. Step failures do not produce an error:
// the run stops at the first failing step and the report ends with it.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*RunReport, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	engine, err := r.factory()
	if err != nil {
		return nil, types.NewEngineError("init", err)
	}
	return r.run(ctx, engine, s)
}

// RunOn is Run against a caller provided engine. The engine must be in the
// state a fresh engine would be in for the run to be reproducible.
func (r *Runner) RunOn(ctx context.Context, engine types.Engine, s *Scenario) (*RunReport, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	return r.run(ctx, engine, s)
}

func (r *Runner) run(ctx context.Context, engine types.Engine, s *Scenario) (*RunReport, error) {
	report := newRunReport(s)
	log := r.log.With().
		Str("scenario", s.Name).
		Str("run_id", report.ID.String()).
		Logger()

	dispatcher := handler.NewDispatcher(log, engine, accounts.NewRegistry(s.Seed), r.metrics, r.opts...)

	names := make(map[string]types.Identity, len(s.Accounts))
	for _, acc := range s.Accounts {
		identity, err := dispatcher.NewAccount(ctx, acc.Funding)
		if err != nil {
			return nil, fmt.Errorf("could not create account %q: %w", acc.Name, err)
		}
		names[acc.Name] = identity
	}

	exec := &execution{
		dispatcher: dispatcher,
		planner:    deploy.NewPlanner(),
		names:      names,
	}

	for i, step := range s.Steps {
		entry := exec.runStep(ctx, i, step)
		report.Entries = append(report.Entries, entry)
		r.metrics.StepFinished(string(entry.Kind), entry.Passed, entry.Duration)

		if !entry.Passed {
			log.Error().
				Err(entry.Err).
				Int("step", i).
				Str("name", entry.Name).
				Str("expected", entry.Expected).
				Str("actual", entry.Actual).
				Msg("step failed, stopping run")
			break
		}
		log.Info().
			Int("step", i).
			Str("name", entry.Name).
			Str("kind", string(entry.Kind)).
			Str("exit_code", entry.ExitCode.String()).
			Uint64("gas_used", entry.GasUsed).
			Dur("duration", entry.Duration).
			Msg("step passed")
	}

	report.Duration = time.Since(report.Started)
	r.metrics.ScenarioFinished(report.Passed(), len(report.Entries), report.Duration)
	log.Info().
		Bool("passed", report.Passed()).
		Int("steps", len(report.Entries)).
		Uint64("gas_used", report.GasUsed()).
		Dur("duration", report.Duration).
		Msg("scenario finished")
	return report, nil
}

// execution is the state of one run: the dispatcher and the identities
// bound to the scenario's names so far
type execution struct {
	dispatcher *handler.Dispatcher
	planner    *deploy.Planner
	names      map[string]types.Identity
}

func (e *execution) runStep(ctx context.Context, index int, step Step) Entry {
	entry := Entry{
		Index: index,
		Name:  step.Label(),
		Kind:  step.Kind(),
	}

	start := time.Now()
	var result *handler.ExecutionResult
	var err error
	if step.Deploy != nil {
		result, err = e.deploy(ctx, step.Deploy, &entry)
	} else {
		result, err = e.call(ctx, step.Call, &entry)
	}
	entry.Duration = time.Since(start)

	if result != nil {
		entry.Sequence = result.Sequence
		entry.ExitCode = result.ExitCode
		entry.ReturnData = result.ReturnData
		entry.GasUsed = result.GasUsed
	}
	if entry.Actual == "" {
		entry.Actual = describeResult(result, err)
	}
	entry.Err = err
	entry.Passed = err == nil
	return entry
}

func (e *execution) deploy(ctx context.Context, d *Deployment, entry *Entry) (*handler.ExecutionResult, error) {
	plan, err := e.planner.Plan(e.names[d.Deployer], d.Initcode, d.Salt, d.Value)
	if err != nil {
		entry.Expected = "a valid deployment"
		return nil, err
	}
	entry.Expected = fmt.Sprintf("exit %s, contract at %s", types.ExitOk, plan.Target.Address)

	contract, result, err := e.dispatcher.Deploy(ctx, plan)
	if err != nil {
		if failure, ok := handler.AsAssertionFailure(err); ok && failure.Field == "deployed address" {
			entry.Actual = fmt.Sprintf("exit %s, contract at %v", result.ExitCode, failure.Actual)
		}
		return result, err
	}

	e.names[d.Contract] = contract
	entry.Actual = fmt.Sprintf("exit %s, contract %s", result.ExitCode, contract)
	return result, nil
}

func (e *execution) call(ctx context.Context, c *Call, entry *Entry) (*handler.ExecutionResult, error) {
	entry.Expected = c.Expect.String()

	target := e.names[c.To]
	var spec *handler.CallSpec
	if c.Method != nil {
		var err error
		spec, err = handler.NewCallSpec(target, c.Method, c.Value, c.Expect, c.Args...)
		if err != nil {
			return nil, err
		}
	} else {
		spec = handler.NewRawCallSpec(target, c.CallData, c.Value, c.Expect)
	}

	return e.dispatcher.Call(ctx, spec, e.names[c.From])
}
