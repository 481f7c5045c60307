// Package progress runs a batch of independent download jobs concurrently,
// either silently or with a visible progress bar. The first job failure
// fails the batch and cancels jobs that have not finished.
package progress

import (
	"context"
	"os"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"
)

// Job is one unit of work: a display title and the action to run. Run is
// invoked exactly once.
type Job struct {
	Title string
	Run   func(ctx context.Context) error
}

// Runner executes a set of independent jobs and returns the first failure.
type Runner interface {
	Run(ctx context.Context, jobs []Job) error
}

// SilentRunner runs all jobs as a plain concurrent join with no visible
// output. Limit bounds the number of jobs in flight; 0 means unbounded.
type SilentRunner struct {
	Limit int
}

func (r SilentRunner) Run(ctx context.Context, jobs []Job) error {
	g, ctx := errgroup.WithContext(ctx)
	if r.Limit > 0 {
		g.SetLimit(r.Limit)
	}
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			return job.Run(ctx)
		})
	}
	return g.Wait()
}

// BarRunner runs jobs like SilentRunner while rendering a terminal
// progress bar, advancing one tick per settled job.
type BarRunner struct {
	Limit int
}

func (r BarRunner) Run(ctx context.Context, jobs []Job) error {
	// Render to stderr; stdout is reserved for the saved page path.
	bar := pb.New(len(jobs)).SetWriter(os.Stderr)
	bar.Start()
	defer bar.Finish()

	g, ctx := errgroup.WithContext(ctx)
	if r.Limit > 0 {
		g.SetLimit(r.Limit)
	}
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			err := job.Run(ctx)
			bar.Increment()
			return err
		})
	}
	return g.Wait()
}
