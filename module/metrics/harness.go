package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onflow/evm-call-harness/module"
)

type HarnessCollector struct {
	messagesExecuted *prometheus.CounterVec
	messageDuration  prometheus.Histogram
	gasUsed          *prometheus.HistogramVec
	engineErrors     *prometheus.CounterVec
	steps            *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	scenarios        *prometheus.CounterVec
	scenarioSteps    prometheus.Histogram
	scenarioDuration prometheus.Histogram
}

var _ module.HarnessMetrics = (*HarnessCollector)(nil)

func NewHarnessCollector(registerer prometheus.Registerer) *HarnessCollector {

	messagesExecuted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemEngine,
		Name:      "messages_executed_total",
		Help:      "the number of messages applied by the engine",
	}, []string{LabelMethod, LabelExitCode})

	messageDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemEngine,
		Name:      "message_duration_seconds",
		Help:      "the time spent by the engine applying a message",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	gasUsed := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemEngine,
		Name:      "gas_used",
		Help:      "the gas used per applied message",
		Buckets:   prometheus.ExponentialBuckets(21_000, 2, 12),
	}, []string{LabelMethod})

	engineErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemEngine,
		Name:      "errors_total",
		Help:      "the number of messages the engine could not process",
	}, []string{LabelOp, LabelRejected})

	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemScenario,
		Name:      "steps_total",
		Help:      "the number of scenario steps run, by kind and outcome",
	}, []string{LabelKind, LabelOutcome})

	stepDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemScenario,
		Name:      "step_duration_seconds",
		Help:      "the duration of a scenario step",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{LabelKind})

	scenarios := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemScenario,
		Name:      "runs_total",
		Help:      "the number of scenario runs, by outcome",
	}, []string{LabelOutcome})

	scenarioSteps := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemScenario,
		Name:      "steps_per_run",
		Help:      "the number of steps executed per scenario run",
		Buckets:   []float64{1, 5, 10, 25, 50, 100},
	})

	scenarioDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespaceHarness,
		Subsystem: subsystemScenario,
		Name:      "run_duration_seconds",
		Help:      "the duration of a scenario run",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})

	registerer.MustRegister(messagesExecuted)
	registerer.MustRegister(messageDuration)
	registerer.MustRegister(gasUsed)
	registerer.MustRegister(engineErrors)
	registerer.MustRegister(steps)
	registerer.MustRegister(stepDuration)
	registerer.MustRegister(scenarios)
	registerer.MustRegister(scenarioSteps)
	registerer.MustRegister(scenarioDuration)

	hc := &HarnessCollector{
		messagesExecuted: messagesExecuted,
		messageDuration:  messageDuration,
		gasUsed:          gasUsed,
		engineErrors:     engineErrors,
		steps:            steps,
		stepDuration:     stepDuration,
		scenarios:        scenarios,
		scenarioSteps:    scenarioSteps,
		scenarioDuration: scenarioDuration,
	}

	return hc
}

// MessageExecuted reports a message the engine applied
func (hc *HarnessCollector) MessageExecuted(method string, exitCode uint32, gasUsed uint64, duration time.Duration) {
	hc.messagesExecuted.WithLabelValues(method, strconv.FormatUint(uint64(exitCode), 10)).Inc()
	hc.messageDuration.Observe(duration.Seconds())
	hc.gasUsed.WithLabelValues(method).Observe(float64(gasUsed))
}

// EngineError reports a message the engine could not process
func (hc *HarnessCollector) EngineError(op string, rejected bool) {
	hc.engineErrors.WithLabelValues(op, strconv.FormatBool(rejected)).Inc()
}

// StepFinished reports the outcome of one scenario step
func (hc *HarnessCollector) StepFinished(kind string, passed bool, duration time.Duration) {
	hc.steps.WithLabelValues(kind, outcome(passed)).Inc()
	hc.stepDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// ScenarioFinished reports the outcome of a scenario run
func (hc *HarnessCollector) ScenarioFinished(passed bool, steps int, duration time.Duration) {
	hc.scenarios.WithLabelValues(outcome(passed)).Inc()
	hc.scenarioSteps.Observe(float64(steps))
	hc.scenarioDuration.Observe(duration.Seconds())
}
