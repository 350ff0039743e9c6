package solver

import (
	"context"
	"fmt"

	"github.com/gitrdm/gomcdp/internal/parallel"
	"github.com/gitrdm/gomcdp/pkg/dp"
)

// Direction selects the query a Job runs.
type Direction int

const (
	// Forward asks for the minimal resources (Solve).
	Forward Direction = iota
	// Backward asks for the maximal functionality (SolveR).
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "solve"
	case Backward:
		return "solve_r"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Job is one query of a batch.
type Job struct {
	Name      string
	DP        dp.PrimitiveDP
	Query     any
	Direction Direction
}

// JobResult is the answer to a Job. Exactly one of Forward and Backward is
// set when Err is nil.
type JobResult struct {
	Job      Job
	Forward  *Result
	Backward *ResultR
	Err      error
}

// String renders the answer on one line.
func (r JobResult) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s: error: %v", r.Job.Name, r.Err)
	case r.Forward != nil:
		return fmt.Sprintf("%s: %s", r.Job.Name, r.Forward.Min)
	case r.Backward != nil:
		return fmt.Sprintf("%s: %s", r.Job.Name, r.Backward.Max)
	}
	return r.Job.Name + ": not run"
}

// SolveAll runs the jobs on workers goroutines (all cores if workers ≤ 0)
// and returns one JobResult per job, in job order. A failing job does not
// stop the others. The returned error is non-nil only when ctx ended the
// batch early; the jobs that never ran carry that error.
func (s *Solver) SolveAll(ctx context.Context, jobs []Job, workers int) ([]JobResult, error) {
	wp := parallel.NewWorkerPool(workers)
	defer wp.Shutdown()

	s.logger.Debug("batch started", "jobs", len(jobs), "workers", wp.Workers())
	ran := make([]bool, len(jobs))
	out, err := parallel.Map(ctx, wp, len(jobs), func(_ context.Context, i int) JobResult {
		ran[i] = true
		return s.run(jobs[i])
	})
	if err != nil {
		for i := range out {
			if !ran[i] {
				out[i] = JobResult{Job: jobs[i], Err: err}
			}
		}
	}
	return out, err
}

func (s *Solver) run(job Job) JobResult {
	res := JobResult{Job: job}
	if job.DP == nil {
		res.Err = dp.NewModelError(job.Name, "no DP to solve")
		return res
	}
	switch job.Direction {
	case Forward:
		r, err := s.Solve(job.DP, job.Query)
		res.Forward, res.Err = &r, err
	case Backward:
		r, err := s.SolveR(job.DP, job.Query)
		res.Backward, res.Err = &r, err
	default:
		res.Err = dp.NewModelError(job.Name, "unknown direction %s", job.Direction)
	}
	if res.Err != nil {
		res.Forward, res.Backward = nil, nil
	}
	return res
}
