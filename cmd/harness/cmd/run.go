package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"time"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/onflow/evm-call-harness/evm/emulator"
	"github.com/onflow/evm-call-harness/evm/handler"
	"github.com/onflow/evm-call-harness/evm/scenario"
	"github.com/onflow/evm-call-harness/evm/types"
	"github.com/onflow/evm-call-harness/module"
	"github.com/onflow/evm-call-harness/module/metrics"
)

// errScenarioFailed is returned when a scenario ran but did not pass. The
// failing step has already been printed.
var errScenarioFailed = errors.New("scenario failed")

type runConfig struct {
	GasLimit      uint64
	StepTimeout   time.Duration
	ChainID       uint64
	// block context of every engine, zero values keep the engine defaults
	BlockNumber   uint64
	BlockTime     uint64
	BlockGasLimit uint64
	Coinbase      string
	Workers       int
	// Metrics is the listen address of the prometheus endpoint, empty to disable
	Metrics       string
}

var runCmd = &cobra.Command{
	Use:   "run <scenario file>...",
	Short: "Run scenario files, stopping each at its first failing step",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func init() {
	runCmd.Flags().Uint64("gas-limit", types.DefaultGasLimit, "gas limit of every message")
	runCmd.Flags().Duration("step-timeout", handler.DefaultStepTimeout, "bound on a single engine interaction, 0 to disable")
	runCmd.Flags().Uint64("chain-id", emulator.DefaultChainID.Uint64(), "chain id of the engine")
	runCmd.Flags().Uint64("block-number", 0, "block number the messages are executed in")
	runCmd.Flags().Uint64("block-time", 0, "block timestamp in seconds")
	runCmd.Flags().Uint64("block-gas-limit", 0, "gas available to a single message")
	runCmd.Flags().String("coinbase", "", "hex address of the block coinbase")
	runCmd.Flags().Int("workers", 1, "number of scenarios run concurrently")
	runCmd.Flags().String("metrics", "", "serve prometheus metrics on this address (e.g. :8080)")
	bindFlags(runCmd.Flags())
}

func run(cmd *cobra.Command, args []string) error {
	cfg := runConfig{
		GasLimit:      viper.GetUint64("gas-limit"),
		StepTimeout:   viper.GetDuration("step-timeout"),
		ChainID:       viper.GetUint64("chain-id"),
		BlockNumber:   viper.GetUint64("block-number"),
		BlockTime:     viper.GetUint64("block-time"),
		BlockGasLimit: viper.GetUint64("block-gas-limit"),
		Coinbase:      viper.GetString("coinbase"),
		Workers:       viper.GetInt("workers"),
		Metrics:       viper.GetString("metrics"),
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	passed, err := runScenarios(ctx, log.Logger, cfg, args, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if !passed {
		return errScenarioFailed
	}
	return nil
}

func (cfg runConfig) engineOptions() ([]emulator.Option, error) {
	var opts []emulator.Option
	if cfg.ChainID != 0 {
		opts = append(opts, emulator.WithChainID(new(big.Int).SetUint64(cfg.ChainID)))
	}
	if cfg.BlockNumber != 0 {
		opts = append(opts, emulator.WithBlockNumber(new(big.Int).SetUint64(cfg.BlockNumber)))
	}
	if cfg.BlockTime != 0 {
		opts = append(opts, emulator.WithBlockTime(cfg.BlockTime))
	}
	if cfg.BlockGasLimit != 0 {
		opts = append(opts, emulator.WithBlockGasLimit(cfg.BlockGasLimit))
	}
	if cfg.Coinbase != "" {
		if !gethCommon.IsHexAddress(cfg.Coinbase) {
			return nil, fmt.Errorf("invalid coinbase address %q", cfg.Coinbase)
		}
		opts = append(opts, emulator.WithCoinbase(gethCommon.HexToAddress(cfg.Coinbase)))
	}
	return opts, nil
}

// runScenarios loads every file, runs them as a suite and prints one report
// per scenario to out. It returns whether every scenario passed.
func runScenarios(ctx context.Context, log zerolog.Logger, cfg runConfig, paths []string, out io.Writer) (bool, error) {
	scenarios := make([]*scenario.Scenario, 0, len(paths))
	var errs *multierror.Error
	for _, path := range paths {
		s, err := scenario.Load(path)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return false, err
	}

	engineOpts, err := cfg.engineOptions()
	if err != nil {
		return false, err
	}

	var collector module.HarnessMetrics = metrics.NewNoopCollector()
	if cfg.Metrics != "" {
		registry := prometheus.NewRegistry()
		collector = metrics.NewHarnessCollector(registry)
		server := metrics.NewServer(log, cfg.Metrics, registry)
		<-server.Ready()
		defer func() { <-server.Done() }()
	}

	runner := scenario.NewRunner(
		log,
		emulator.Factory(engineOpts...),
		collector,
		handler.WithGasLimit(cfg.GasLimit),
		handler.WithStepTimeout(cfg.StepTimeout),
	)

	reports, err := scenario.NewSuite(runner, cfg.Workers).Run(ctx, scenarios)

	passed := err == nil
	count := 0
	for _, report := range reports {
		if report == nil {
			continue
		}
		scenario.PrintReport(out, report)
		fmt.Fprintln(out)
		if report.Passed() {
			count++
		} else {
			passed = false
		}
	}
	fmt.Fprintf(out, "%d of %d scenarios passed\n", count, len(scenarios))

	if err != nil {
		return false, err
	}
	return passed, nil
}
