package scenario

import (
	"context"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"
)

// Suite runs independent scenarios concurrently. Every run gets its own
// engine and registry, so runs never share sequence numbers or state.
type Suite struct {
	runner  *Runner
	workers int
}

// NewSuite constructs a suite running at most workers scenarios at a time
func NewSuite(runner *Runner, workers int) *Suite {
	if workers < 1 {
		workers = 1
	}
	return &Suite{
		runner:  runner,
		workers: workers,
	}
}

// Run runs every scenario and returns the reports in input order. A scenario
// that could not start has a nil report and contributes to the returned error.
func (s *Suite) Run(ctx context.Context, scenarios []*Scenario) ([]*RunReport, error) {
	pool := workerpool.New(s.workers)

	reports := make([]*RunReport, len(scenarios))
	var mu sync.Mutex
	var errs *multierror.Error

	for i, sc := range scenarios {
		i, sc := i, sc
		pool.Submit(func() {
			report, err := s.runner.Run(ctx, sc)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("scenario %d (%s): %w", i, sc.Name, err))
				mu.Unlock()
				return
			}
			reports[i] = report
		})
	}
	pool.StopWait()

	return reports, errs.ErrorOrNil()
}
