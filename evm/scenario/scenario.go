package scenario

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hashicorp/go-multierror"

	"github.com/onflow/evm-call-harness/evm/abi"
	"github.com/onflow/evm-call-harness/evm/deploy"
	"github.com/onflow/evm-call-harness/evm/handler"
)

// StepKind tells deployments and calls apart in reports and metrics
type StepKind string

const (
	KindDeploy StepKind = "deploy"
	KindCall   StepKind = "call"
)

// Account is a test account created, funded, before the first step
type Account struct {
	Name    string
	Funding *big.Int
}

// Deployment deploys Initcode from Deployer. On success the contract is
// known to later steps as Contract.
type Deployment struct {
	Contract string
	Deployer string
	Initcode []byte
	Salt     deploy.Salt
	Value    *big.Int
}

// Call invokes a contract known by name. With a Method, Args are encoded
// against the method inputs; without one, CallData is sent as is.
type Call struct {
	From     string
	To       string
	Method   *abi.Method
	Args     []interface{}
	CallData []byte
	Value    *big.Int
	Expect   handler.Expectation
}

// Step is exactly one of a deployment or a call
type Step struct {
	Name   string
	Deploy *Deployment
	Call   *Call
}

// Kind returns the kind of the step
func (s Step) Kind() StepKind {
	if s.Deploy != nil {
		return KindDeploy
	}
	return KindCall
}

// Label returns the step name, or a generated one
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	switch {
	case s.Deploy != nil:
		return fmt.Sprintf("deploy %s", s.Deploy.Contract)
	case s.Call != nil && s.Call.Method != nil:
		return fmt.Sprintf("%s.%s", s.Call.To, s.Call.Method.Name)
	case s.Call != nil:
		return fmt.Sprintf("%s.<raw>", s.Call.To)
	default:
		return "<empty>"
	}
}

// Scenario is an ordered list of steps run against a fresh engine. Steps
// refer to accounts and deployed contracts by name.
type Scenario struct {
	Name     string
	Seed     string
	Accounts []Account
	Steps    []Step
}

// Validate checks that every name a step refers to is defined by an account
// or by an earlier deployment, and that every call can be encoded. All
// problems are reported at once.
func (s *Scenario) Validate() error {
	var result *multierror.Error
	if s.Name == "" {
		result = multierror.Append(result, errors.New("scenario has no name"))
	}
	if len(s.Steps) == 0 {
		result = multierror.Append(result, errors.New("scenario has no steps"))
	}

	accounts := make(map[string]bool, len(s.Accounts))
	for i, acc := range s.Accounts {
		switch {
		case acc.Name == "":
			result = multierror.Append(result, fmt.Errorf("account %d has no name", i))
		case accounts[acc.Name]:
			result = multierror.Append(result, fmt.Errorf("account %q is defined twice", acc.Name))
		}
		if acc.Funding != nil && acc.Funding.Sign() < 0 {
			result = multierror.Append(result, fmt.Errorf("account %q has negative funding", acc.Name))
		}
		accounts[acc.Name] = true
	}

	contracts := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(step, accounts, contracts); err != nil {
			result = multierror.Append(result, fmt.Errorf("step %d (%s): %w", i, step.Label(), err))
		}
		if step.Deploy != nil && step.Deploy.Contract != "" {
			contracts[step.Deploy.Contract] = true
		}
	}

	return result.ErrorOrNil()
}

func validateStep(step Step, accounts, contracts map[string]bool) error {
	var result *multierror.Error
	switch {
	case step.Deploy != nil && step.Call != nil:
		return errors.New("step is both a deployment and a call")

	case step.Deploy != nil:
		d := step.Deploy
		if d.Contract == "" {
			result = multierror.Append(result, errors.New("deployment has no contract name"))
		}
		if accounts[d.Contract] || contracts[d.Contract] {
			result = multierror.Append(result, fmt.Errorf("name %q is already taken", d.Contract))
		}
		if !accounts[d.Deployer] {
			result = multierror.Append(result, fmt.Errorf("unknown deployer %q", d.Deployer))
		}
		if len(d.Initcode) == 0 {
			result = multierror.Append(result, errors.New("empty initcode"))
		}
		if d.Value != nil && d.Value.Sign() < 0 {
			result = multierror.Append(result, errors.New("negative value"))
		}

	case step.Call != nil:
		c := step.Call
		if !accounts[c.From] {
			result = multierror.Append(result, fmt.Errorf("unknown caller %q", c.From))
		}
		if !accounts[c.To] && !contracts[c.To] {
			result = multierror.Append(result, fmt.Errorf("unknown target %q", c.To))
		}
		if c.Value != nil && c.Value.Sign() < 0 {
			result = multierror.Append(result, errors.New("negative value"))
		}
		if c.Method != nil {
			if _, err := abi.Encode(c.Method.Inputs, c.Args); err != nil {
				result = multierror.Append(result, err)
			}
		} else if len(c.Args) > 0 {
			result = multierror.Append(result, errors.New("arguments given without a method"))
		}
		if err := c.Expect.Validate(); err != nil {
			result = multierror.Append(result, err)
		}

	default:
		return errors.New("step is neither a deployment nor a call")
	}
	return result.ErrorOrNil()
}
