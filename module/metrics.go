package module

import (
	"time"
)

// EngineMetrics encapsulates the metrics collectors for messages submitted to
// the execution engine.
type EngineMetrics interface {
	// MessageExecuted reports a message the engine applied, with its method,
	// exit code, gas used and the wall clock time spent in the engine.
	MessageExecuted(method string, exitCode uint32, gasUsed uint64, duration time.Duration)

	// EngineError reports a message the engine could not process at all.
	// Rejected is true when the engine refused the message before execution.
	EngineError(op string, rejected bool)
}

// ScenarioMetrics encapsulates the metrics collectors for scenario runs.
type ScenarioMetrics interface {
	// StepFinished reports the outcome of one scenario step
	StepFinished(kind string, passed bool, duration time.Duration)

	// ScenarioFinished reports the outcome of a whole scenario run
	ScenarioFinished(passed bool, steps int, duration time.Duration)
}

// HarnessMetrics is implemented by every harness metrics collector
type HarnessMetrics interface {
	EngineMetrics
	ScenarioMetrics
}
