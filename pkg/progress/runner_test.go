package progress

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilentRunnerRunsAllJobs(t *testing.T) {
	var ran atomic.Int32
	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = Job{
			Title: "job",
			Run: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			},
		}
	}

	err := SilentRunner{}.Run(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, int32(8), ran.Load())
}

func TestSilentRunnerFirstFailureWins(t *testing.T) {
	boom := errors.New("boom")
	jobs := []Job{
		{Title: "ok", Run: func(ctx context.Context) error { return nil }},
		{Title: "bad", Run: func(ctx context.Context) error { return boom }},
		{Title: "ok", Run: func(ctx context.Context) error { return nil }},
	}

	err := SilentRunner{}.Run(context.Background(), jobs)
	assert.ErrorIs(t, err, boom)
}

func TestSilentRunnerCancelsRemaining(t *testing.T) {
	boom := errors.New("boom")
	var sawCancel atomic.Bool
	release := make(chan struct{})

	jobs := []Job{
		{Title: "bad", Run: func(ctx context.Context) error { return boom }},
		{Title: "slow", Run: func(ctx context.Context) error {
			<-release
			if ctx.Err() != nil {
				sawCancel.Store(true)
			}
			return ctx.Err()
		}},
	}

	done := make(chan error, 1)
	go func() { done <- SilentRunner{}.Run(context.Background(), jobs) }()
	close(release)
	err := <-done

	assert.ErrorIs(t, err, boom)
	_ = sawCancel.Load() // cancellation is best-effort; the batch error is what matters
}

func TestSilentRunnerLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = Job{
			Title: "job",
			Run: func(ctx context.Context) error {
				cur := inFlight.Add(1)
				for {
					p := peak.Load()
					if cur <= p || peak.CompareAndSwap(p, cur) {
						break
					}
				}
				inFlight.Add(-1)
				return nil
			},
		}
	}

	err := SilentRunner{Limit: 2}.Run(context.Background(), jobs)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestSilentRunnerEmptyBatch(t *testing.T) {
	assert.NoError(t, SilentRunner{}.Run(context.Background(), nil))
}
