package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gethABI "github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/exp/slices"

	"github.com/onflow/evm-call-harness/evm/abi"
)

// ErrMethodNotFound is returned when an artifact has no method with the
// requested name or signature
var ErrMethodNotFound = errors.New("method not found")

// LoadError is returned when a compiled contract can not be loaded
type LoadError struct {
	Path string
	Err  error
}

// NewLoadErrorf constructs a new LoadError
func NewLoadErrorf(path string, msg string, args ...interface{}) *LoadError {
	return &LoadError{Path: path, Err: fmt.Errorf(msg, args...)}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load contract %s: %s", e.Path, e.Err.Error())
}

// Unwrap unwraps the underlying error
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if the error or any underlying errors
// is of the type LoadError
func IsLoadError(err error) bool {
	var e *LoadError
	return errors.As(err, &e)
}

// Artifact is a compiled contract: its initcode and, when the compiler
// output carried one, its interface
type Artifact struct {
	Name        string
	Initcode    []byte
	Constructor *abi.Method
	// Methods is keyed by signature
	Methods map[string]*abi.Method
}

// Method looks a method up by signature, or by name when the name is not
// overloaded
func (a *Artifact) Method(nameOrSignature string) (*abi.Method, error) {
	if m, ok := a.Methods[nameOrSignature]; ok {
		return m, nil
	}
	var found []*abi.Method
	for _, m := range a.Methods {
		if m.Name == nameOrSignature {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s has no method %q", ErrMethodNotFound, a.Name, nameOrSignature)
	case 1:
		return found[0], nil
	default:
		sigs := make([]string, len(found))
		for i, m := range found {
			sigs[i] = m.Signature()
		}
		slices.Sort(sigs)
		return nil, fmt.Errorf("method %q of %s is overloaded, use one of %s",
			nameOrSignature, a.Name, strings.Join(sigs, ", "))
	}
}

// Load reads a compiled contract from path. Files ending in .json are read
// as compiler artifacts, anything else as hex text.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(name, path, data)
	}
	return ParseHex(name, path, data)
}

// ParseHex parses hex text initcode, with an optional 0x prefix and
// surrounding whitespace
func ParseHex(name string, path string, data []byte) (*Artifact, error) {
	code, err := abi.ParseHex(string(data))
	if err != nil {
		return nil, NewLoadErrorf(path, "invalid hex initcode: %w", err)
	}
	if len(code) == 0 {
		return nil, NewLoadErrorf(path, "empty initcode")
	}
	return &Artifact{
		Name:     name,
		Initcode: code,
		Methods:  map[string]*abi.Method{},
	}, nil
}

type jsonArtifact struct {
	ContractName string          `json:"contractName"`
	Bytecode     json.RawMessage `json:"bytecode"`
	ABI          json.RawMessage `json:"abi"`
}

type jsonBytecodeObject struct {
	Object string `json:"object"`
}

// ParseJSON parses a solc, hardhat or foundry style artifact. The bytecode is
// either a hex string or an object with a hex "object" field; the abi is
// optional.
func ParseJSON(name string, path string, data []byte) (*Artifact, error) {
	var raw jsonArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewLoadErrorf(path, "invalid json artifact: %w", err)
	}
	if raw.ContractName != "" {
		name = raw.ContractName
	}

	code, err := parseBytecode(raw.Bytecode)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	artifact := &Artifact{
		Name:     name,
		Initcode: code,
		Methods:  map[string]*abi.Method{},
	}

	if len(raw.ABI) == 0 || bytes.Equal(raw.ABI, []byte("null")) {
		return artifact, nil
	}
	parsed, err := gethABI.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, NewLoadErrorf(path, "invalid abi: %w", err)
	}
	for _, m := range parsed.Methods {
		method, err := convertMethod(m.RawName, m.Inputs, m.Outputs)
		if err != nil {
			return nil, NewLoadErrorf(path, "unsupported method %s: %w", m.Sig, err)
		}
		artifact.Methods[method.Signature()] = method
	}
	if len(parsed.Constructor.Inputs) > 0 {
		artifact.Constructor, err = convertMethod("constructor", parsed.Constructor.Inputs, nil)
		if err != nil {
			return nil, NewLoadErrorf(path, "unsupported constructor: %w", err)
		}
	}
	return artifact, nil
}

func parseBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errors.New("missing bytecode")
	}

	var hexCode string
	if err := json.Unmarshal(raw, &hexCode); err != nil {
		var obj jsonBytecodeObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("bytecode is neither a string nor an object: %w", err)
		}
		hexCode = obj.Object
	}

	code, err := abi.ParseHex(hexCode)
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytecode: %w", err)
	}
	if len(code) == 0 {
		return nil, errors.New("empty bytecode")
	}
	return code, nil
}

func convertMethod(name string, inputs, outputs gethABI.Arguments) (*abi.Method, error) {
	in, err := convertArguments(inputs)
	if err != nil {
		return nil, err
	}
	out, err := convertArguments(outputs)
	if err != nil {
		return nil, err
	}
	return abi.NewMethod(name, in, out), nil
}

func convertArguments(args gethABI.Arguments) ([]abi.Type, error) {
	ts := make([]abi.Type, len(args))
	for i, arg := range args {
		t, err := abi.NewType(arg.Type.String())
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		ts[i] = t
	}
	return ts, nil
}

// ConstructorInitcode returns the initcode followed by the encoded
// constructor arguments
func (a *Artifact) ConstructorInitcode(args ...interface{}) ([]byte, error) {
	if a.Constructor == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s has no constructor arguments, got %d", a.Name, len(args))
		}
		return append([]byte{}, a.Initcode...), nil
	}
	encoded, err := abi.Encode(a.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("could not encode constructor arguments of %s: %w", a.Name, err)
	}
	code := make([]byte, 0, len(a.Initcode)+len(encoded))
	code = append(code, a.Initcode...)
	return append(code, encoded...), nil
}
