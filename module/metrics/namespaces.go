package metrics

// Prometheus metric namespaces
const (
	namespaceHarness = "harness"
)

// Harness subsystems
const (
	subsystemEngine   = "engine"
	subsystemScenario = "scenario"
)

const (
	LabelMethod   = "method"
	LabelExitCode = "exit_code"
	LabelOp       = "op"
	LabelRejected = "rejected"
	LabelKind     = "kind"
	LabelOutcome  = "outcome"
)

const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

func outcome(passed bool) string {
	if passed {
		return OutcomePassed
	}
	return OutcomeFailed
}
