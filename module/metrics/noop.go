package metrics

import (
	"time"

	"github.com/onflow/evm-call-harness/module"
)

type NoopCollector struct{}

var _ module.HarnessMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) MessageExecuted(string, uint32, uint64, time.Duration) {}
func (nc *NoopCollector) EngineError(string, bool)                              {}
func (nc *NoopCollector) StepFinished(string, bool, time.Duration)              {}
func (nc *NoopCollector) ScenarioFinished(bool, int, time.Duration)             {}
