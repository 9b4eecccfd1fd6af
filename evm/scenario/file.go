package scenario

import (
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/onflow/evm-call-harness/evm/abi"
	"github.com/onflow/evm-call-harness/evm/deploy"
	"github.com/onflow/evm-call-harness/evm/handler"
	"github.com/onflow/evm-call-harness/evm/loader"
	"github.com/onflow/evm-call-harness/evm/types"
)

// The file layout, shown as yaml:
//
//	name: storage
//	contracts:
//	  - name: Storage
//	    path: Storage.json
//	accounts:
//	  - name: alice
//	    funding: "1000000000000000000"
//	steps:
//	  - deploy: {artifact: Storage, as: storage, from: alice, salt: 1}
//	  - call: {from: alice, to: storage, method: store, args: [1337]}
//	  - call:
//	      from: alice
//	      to: storage
//	      method: retrieve
//	      expect: {exit: 0, returns: ["1337"]}
//	  - call:
//	      from: alice
//	      to: storage
//	      method: retrieve
//	      value: 1
//	      expect: {exit: EVMContractReverted, unparsed: true}
//
// Integers larger than 2^53 should be quoted, as yaml and json readers turn
// large numbers into floats.

type fileScenario struct {
	Name      string         `mapstructure:"name"`
	Seed      string         `mapstructure:"seed"`
	Contracts []fileContract `mapstructure:"contracts"`
	Accounts  []fileAccount  `mapstructure:"accounts"`
	Steps     []fileStep     `mapstructure:"steps"`
}

type fileContract struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

type fileAccount struct {
	Name    string      `mapstructure:"name"`
	Funding interface{} `mapstructure:"funding"`
}

type fileStep struct {
	Name   string      `mapstructure:"name"`
	Deploy *fileDeploy `mapstructure:"deploy"`
	Call   *fileCall   `mapstructure:"call"`
}

type fileDeploy struct {
	Artifact string        `mapstructure:"artifact"`
	As       string        `mapstructure:"as"`
	From     string        `mapstructure:"from"`
	Salt     interface{}   `mapstructure:"salt"`
	Value    interface{}   `mapstructure:"value"`
	Args     []interface{} `mapstructure:"args"`
}

type fileCall struct {
	From   string        `mapstructure:"from"`
	To     string        `mapstructure:"to"`
	Method string        `mapstructure:"method"`
	Args   []interface{} `mapstructure:"args"`
	Data   string        `mapstructure:"data"`
	Value  interface{}   `mapstructure:"value"`
	Expect fileExpect    `mapstructure:"expect"`
}

type fileExpect struct {
	Exit     types.ExitCode `mapstructure:"exit"`
	Returns  []interface{}  `mapstructure:"returns"`
	Data     *string        `mapstructure:"data"`
	Revert   *string        `mapstructure:"revert"`
	Unparsed bool           `mapstructure:"unparsed"`
}

// Load reads a scenario file. The format follows the file extension (yaml,
// json or toml); contract paths are relative to the file. A contract that
// can not be loaded fails the whole scenario before any step runs.
func Load(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read scenario file %s: %w", path, err)
	}

	s, err := Decode(v, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("invalid scenario file %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Decode builds a scenario from configuration already read into v.
// Contract paths are resolved against baseDir.
func Decode(v *viper.Viper, baseDir string) (*Scenario, error) {
	var f fileScenario
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		exitCodeHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&f, hook); err != nil {
		return nil, fmt.Errorf("could not decode scenario: %w", err)
	}

	b := &fileBuilder{
		artifacts: make(map[string]*loader.Artifact),
		deployed:  make(map[string]*loader.Artifact),
	}
	for _, c := range f.Contracts {
		path := c.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		artifact, err := loader.Load(path)
		if err != nil {
			return nil, err
		}
		name := c.Name
		if name == "" {
			name = artifact.Name
		}
		b.artifacts[name] = artifact
	}

	s := &Scenario{
		Name: f.Name,
		Seed: f.Seed,
	}
	var errs *multierror.Error
	for _, acc := range f.Accounts {
		funding, err := parseAmount(acc.Funding)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("account %q funding: %w", acc.Name, err))
			continue
		}
		s.Accounts = append(s.Accounts, Account{Name: acc.Name, Funding: funding})
	}
	for i, fs := range f.Steps {
		step, err := b.step(fs)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("step %d: %w", i, err))
			continue
		}
		s.Steps = append(s.Steps, step)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

type fileBuilder struct {
	artifacts map[string]*loader.Artifact
	// deployed maps contract names to the artifact they were deployed from
	deployed map[string]*loader.Artifact
}

func (b *fileBuilder) step(fs fileStep) (Step, error) {
	step := Step{Name: fs.Name}
	switch {
	case fs.Deploy != nil && fs.Call != nil:
		return step, errors.New("step is both a deployment and a call")
	case fs.Deploy != nil:
		d, err := b.deployment(fs.Deploy)
		step.Deploy = d
		return step, err
	case fs.Call != nil:
		c, err := b.call(fs.Call)
		step.Call = c
		return step, err
	default:
		return step, errors.New("step is neither a deployment nor a call")
	}
}

func (b *fileBuilder) deployment(fd *fileDeploy) (*Deployment, error) {
	artifact, ok := b.artifacts[fd.Artifact]
	if !ok {
		return nil, fmt.Errorf("unknown contract artifact %q", fd.Artifact)
	}

	var initcode []byte
	var err error
	if artifact.Constructor != nil {
		args, perr := abi.ParseValues(artifact.Constructor.Inputs, fd.Args)
		if perr != nil {
			return nil, fmt.Errorf("constructor arguments: %w", perr)
		}
		initcode, err = artifact.ConstructorInitcode(args...)
	} else {
		initcode, err = artifact.ConstructorInitcode(fd.Args...)
	}
	if err != nil {
		return nil, err
	}

	salt, err := parseSalt(fd.Salt)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount(fd.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	name := fd.As
	if name == "" {
		name = fd.Artifact
	}
	b.deployed[name] = artifact

	return &Deployment{
		Contract: name,
		Deployer: fd.From,
		Initcode: initcode,
		Salt:     salt,
		Value:    value,
	}, nil
}

func (b *fileBuilder) call(fc *fileCall) (*Call, error) {
	value, err := parseAmount(fc.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	c := &Call{
		From:  fc.From,
		To:    fc.To,
		Value: value,
	}

	if fc.Method == "" {
		if len(fc.Args) > 0 {
			return nil, errors.New("arguments given without a method")
		}
		c.CallData, err = parseData(fc.Data)
		if err != nil {
			return nil, fmt.Errorf("call data: %w", err)
		}
	} else {
		if fc.Data != "" {
			return nil, errors.New("both a method and raw call data given")
		}
		c.Method, err = b.method(fc.To, fc.Method)
		if err != nil {
			return nil, err
		}
		c.Args, err = abi.ParseValues(c.Method.Inputs, fc.Args)
		if err != nil {
			return nil, fmt.Errorf("arguments of %s: %w", c.Method.Signature(), err)
		}
	}

	c.Expect, err = expectation(fc.Expect, c.Method)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// method resolves a method declaration or a bare name against the artifact
// the target was deployed from
func (b *fileBuilder) method(target string, decl string) (*abi.Method, error) {
	artifact := b.deployed[target]
	if strings.Contains(decl, "(") {
		parsed, err := abi.ParseMethod(decl)
		if err != nil {
			return nil, err
		}
		if artifact != nil && len(parsed.Outputs) == 0 {
			if known, err := artifact.Method(parsed.Signature()); err == nil {
				return known, nil
			}
		}
		return parsed, nil
	}
	if artifact == nil {
		return nil, fmt.Errorf("method %q needs a full declaration: the interface of %q is unknown", decl, target)
	}
	return artifact.Method(decl)
}

func expectation(fe fileExpect, method *abi.Method) (handler.Expectation, error) {
	e := handler.ExpectExit(fe.Exit)

	set := 0
	for _, given := range []bool{fe.Returns != nil, fe.Data != nil, fe.Revert != nil, fe.Unparsed} {
		if given {
			set++
		}
	}
	if set > 1 {
		return e, errors.New("at most one of returns, data, revert and unparsed can be expected")
	}

	switch {
	case fe.Returns != nil:
		if method == nil {
			return e, errors.New("expected return values need a method")
		}
		values, err := abi.ParseValues(method.Outputs, fe.Returns)
		if err != nil {
			return e, fmt.Errorf("expected return of %s: %w", method, err)
		}
		e = e.WithReturn(method.Outputs, values...)
	case fe.Data != nil:
		data, err := parseData(*fe.Data)
		if err != nil {
			return e, fmt.Errorf("expected return data: %w", err)
		}
		e = e.WithRawReturn(data)
	case fe.Revert != nil:
		e = e.WithRevertReason(*fe.Revert)
	case fe.Unparsed:
		e = e.WithUnparsedReturn()
	}
	return e, e.Validate()
}

// exitCodeHook lets expected exit codes be written by name
func exitCodeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(types.ExitCode(0)) {
		return data, nil
	}
	return types.ParseExitCode(data.(string))
}

func parseAmount(raw interface{}) (*big.Int, error) {
	if raw == nil {
		return new(big.Int), nil
	}
	v, err := abi.ParseValue(abi.Uint256, raw)
	if err != nil {
		return nil, err
	}
	return v.(*big.Int), nil
}

func parseSalt(raw interface{}) (deploy.Salt, error) {
	if s, ok := raw.(string); ok && strings.HasPrefix(strings.TrimSpace(s), "0x") {
		b, err := abi.ParseHex(s)
		if err != nil {
			return deploy.Salt{}, fmt.Errorf("salt: %w", err)
		}
		return deploy.NewSalt(b)
	}
	n, err := parseAmount(raw)
	if err != nil {
		return deploy.Salt{}, fmt.Errorf("salt: %w", err)
	}
	if n.Sign() < 0 {
		return deploy.Salt{}, fmt.Errorf("salt: negative value %s", n)
	}
	var salt deploy.Salt
	n.FillBytes(salt[:])
	return salt, nil
}

func parseData(s string) ([]byte, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return abi.ParseHex(s)
}
