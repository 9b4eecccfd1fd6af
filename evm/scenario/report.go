package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onflow/evm-call-harness/evm/abi"
	"github.com/onflow/evm-call-harness/evm/handler"
	"github.com/onflow/evm-call-harness/evm/types"
)

// Entry is the outcome of one step
type Entry struct {
	Index    int
	Name     string
	Kind     StepKind
	Passed   bool
	Expected string
	Actual   string
	// Sequence is the sequence number the step's message consumed
	Sequence   uint64
	ExitCode   types.ExitCode
	ReturnData []byte
	GasUsed    uint64
	Duration   time.Duration
	Err        error
}

// RunReport lists the outcome of every step that ran. A run stops at the
// first failing step, which is then the last entry.
type RunReport struct {
	ID       uuid.UUID
	Scenario string
	Started  time.Time
	Duration time.Duration
	// Steps is the number of steps the scenario declares
	Steps   int
	Entries []Entry
}

func newRunReport(s *Scenario) *RunReport {
	return &RunReport{
		ID:       uuid.New(),
		Scenario: s.Name,
		Started:  time.Now(),
		Steps:    len(s.Steps),
		Entries:  make([]Entry, 0, len(s.Steps)),
	}
}

// Passed returns true if every declared step ran and passed
func (r *RunReport) Passed() bool {
	return r.Failure() == nil && len(r.Entries) == r.Steps
}

// Failure returns the failing entry, if any
func (r *RunReport) Failure() *Entry {
	if len(r.Entries) == 0 {
		return nil
	}
	last := &r.Entries[len(r.Entries)-1]
	if last.Passed {
		return nil
	}
	return last
}

// GasUsed returns the gas used by all steps that ran
func (r *RunReport) GasUsed() uint64 {
	var total uint64
	for _, e := range r.Entries {
		total += e.GasUsed
	}
	return total
}

// Summary is a one line outcome of the run
func (r *RunReport) Summary() string {
	if failure := r.Failure(); failure != nil {
		return fmt.Sprintf("scenario %q failed at step %d (%s): expected %s, actual %s",
			r.Scenario, failure.Index, failure.Name, failure.Expected, failure.Actual)
	}
	return fmt.Sprintf("scenario %q passed: %d steps, %d gas in %s",
		r.Scenario, len(r.Entries), r.GasUsed(), r.Duration)
}

// describeResult renders what the engine reported for a step
func describeResult(result *handler.ExecutionResult, err error) string {
	if result == nil {
		if err != nil {
			return "error: " + err.Error()
		}
		return "<none>"
	}

	var sb strings.Builder
	sb.WriteString("exit ")
	sb.WriteString(result.ExitCode.String())
	switch {
	case result.Values != nil:
		fmt.Fprintf(&sb, ", return %s", abi.FormatValue(result.Values))
	case len(result.ReturnData) > 0:
		if reason, rerr := abi.DecodeRevert(result.ReturnData); rerr == nil {
			fmt.Fprintf(&sb, ", revert %q", reason.String())
		} else {
			fmt.Fprintf(&sb, ", return data %s", abi.FormatValue(result.ReturnData))
		}
	}
	if failure, ok := handler.AsAssertionFailure(err); ok && failure.Diff != "" {
		fmt.Fprintf(&sb, "\n%s", failure.Diff)
	} else if err != nil && !ok {
		fmt.Fprintf(&sb, " (%s)", err)
	}
	return sb.String()
}
