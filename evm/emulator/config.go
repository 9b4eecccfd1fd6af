package emulator

import (
	"math"
	"math/big"

	gethCommon "github.com/ethereum/go-ethereum/common"
	gethCore "github.com/ethereum/go-ethereum/core"
	gethVM "github.com/ethereum/go-ethereum/core/vm"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
	gethParams "github.com/ethereum/go-ethereum/params"
)

var (
	// DefaultChainID is the chain id of the in-process engine
	DefaultChainID = big.NewInt(31415926)

	// DefaultBlockGasLimit bounds the gas of a single message
	DefaultBlockGasLimit uint64 = math.MaxUint64

	zero    = uint64(0)
	bigZero = big.NewInt(0)
)

// Config sets the required parameters
type Config struct {
	// Chain Config
	ChainConfig *gethParams.ChainConfig
	// EVM config
	EVMConfig gethVM.Config
	// block context
	BlockContext *gethVM.BlockContext
}

// ChainRules returns the chain rules active for the configured block
func (c *Config) ChainRules() gethParams.Rules {
	return c.ChainConfig.Rules(
		c.BlockContext.BlockNumber,
		c.BlockContext.Random != nil,
		c.BlockContext.Time)
}

// newDefaultChainConfig enables every fork up to and including Shanghai from
// genesis
func newDefaultChainConfig() *gethParams.ChainConfig {
	return &gethParams.ChainConfig{
		ChainID:                       DefaultChainID,
		HomesteadBlock:                bigZero,
		DAOForkBlock:                  bigZero,
		DAOForkSupport:                false,
		EIP150Block:                   bigZero,
		EIP155Block:                   bigZero,
		EIP158Block:                   bigZero,
		ByzantiumBlock:                bigZero,
		ConstantinopleBlock:           bigZero,
		PetersburgBlock:               bigZero,
		IstanbulBlock:                 bigZero,
		MuirGlacierBlock:              bigZero,
		BerlinBlock:                   bigZero,
		LondonBlock:                   bigZero,
		ArrowGlacierBlock:             bigZero,
		GrayGlacierBlock:              bigZero,
		MergeNetsplitBlock:            bigZero,
		TerminalTotalDifficulty:       bigZero,
		TerminalTotalDifficultyPassed: true,
		ShanghaiTime:                  &zero,
	}
}

func defaultGetHash(n uint64) gethCommon.Hash {
	return gethCrypto.Keccak256Hash(new(big.Int).SetUint64(n).Bytes())
}

func defaultConfig() *Config {
	return &Config{
		ChainConfig: newDefaultChainConfig(),
		EVMConfig: gethVM.Config{
			NoBaseFee: true,
		},
		BlockContext: &gethVM.BlockContext{
			CanTransfer: gethCore.CanTransfer,
			Transfer:    gethCore.Transfer,
			GetHash:     defaultGetHash,
			Coinbase:    gethCommon.Address{},
			GasLimit:    DefaultBlockGasLimit,
			BlockNumber: big.NewInt(1),
			Time:        1,
			Difficulty:  bigZero,
			BaseFee:     bigZero,
			Random:      &gethCommon.Hash{},
		},
	}
}

// Option configures the engine
type Option func(*Config) *Config

// NewConfig initializes a new config
func NewConfig(opts ...Option) *Config {
	ctx := defaultConfig()
	for _, applyOption := range opts {
		ctx = applyOption(ctx)
	}
	return ctx
}

// WithChainID sets the evm chain ID
func WithChainID(chainID *big.Int) Option {
	return func(c *Config) *Config {
		c.ChainConfig.ChainID = chainID
		return c
	}
}

// WithBlockNumber sets the block number the messages are executed in
func WithBlockNumber(blockNumber *big.Int) Option {
	return func(c *Config) *Config {
		c.BlockContext.BlockNumber = blockNumber
		return c
	}
}

// WithBlockTime sets the block timestamp
func WithBlockTime(time uint64) Option {
	return func(c *Config) *Config {
		c.BlockContext.Time = time
		return c
	}
}

// WithCoinbase sets the coinbase of the block where the fees are collected in
func WithCoinbase(coinbase gethCommon.Address) Option {
	return func(c *Config) *Config {
		c.BlockContext.Coinbase = coinbase
		return c
	}
}

// WithBlockGasLimit caps the gas limit of any single message
func WithBlockGasLimit(gasLimit uint64) Option {
	return func(c *Config) *Config {
		c.BlockContext.GasLimit = gasLimit
		return c
	}
}

// WithRandom sets the block prevrandao value
func WithRandom(rand *gethCommon.Hash) Option {
	return func(c *Config) *Config {
		c.BlockContext.Random = rand
		return c
	}
}

// WithGetBlockHashFunction sets the functionality to look up block hash by height
func WithGetBlockHashFunction(getHash gethVM.GetHashFunc) Option {
	return func(c *Config) *Config {
		c.BlockContext.GetHash = getHash
		return c
	}
}
