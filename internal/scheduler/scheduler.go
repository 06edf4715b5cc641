// Package scheduler bounds concurrency across one scan cycle's candidates
// and restarts scanning on a fixed interval (spec.md §4.11).
package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/gwlsn/av1janitor/internal/logger"
	"github.com/gwlsn/av1janitor/internal/scan"
)

// Controller processes one candidate end to end and is solely responsible
// for finalizing its job record, including on ctx cancellation.
type Controller interface {
	Process(ctx context.Context, candidate scan.Candidate)
}

// Scheduler drains the scanner's candidates through Controller, admitting
// at most maxConcurrent at a time.
type Scheduler struct {
	scanner       *scan.Scanner
	controller    Controller
	maxConcurrent int64
	scanInterval  time.Duration
}

// New returns a Scheduler wiring scanner to controller.
func New(scanner *scan.Scanner, controller Controller, maxConcurrent int, scanInterval time.Duration) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Scheduler{
		scanner:       scanner,
		controller:    controller,
		maxConcurrent: int64(maxConcurrent),
		scanInterval:  scanInterval,
	}
}

// Run executes scan cycles until ctx is cancelled. Each cycle drains the
// scanner fully and waits for every admitted candidate to finish before the
// next cycle starts. A cycle that overruns the interval leaves at most one
// pending tick, so the next cycle starts right after it; further ticks are
// dropped. On cancellation, Run stops admitting candidates, waits for the
// already-admitted Process calls to return (each observes the cancelled
// context and is expected to finalize its job as failed-cancelled), and
// returns.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		s.runCycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes exactly one scan cycle to completion. Used by the
// daemon's --once mode.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runCycle(ctx)
}

func (s *Scheduler) runCycle(ctx context.Context) {
	sem := semaphore.NewWeighted(s.maxConcurrent)
	g, gctx := errgroup.WithContext(ctx)

	s.scanner.Scan(ctx, func(cand scan.Candidate) {
		if ctx.Err() != nil {
			return
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			// Only fails if gctx was cancelled while waiting for a slot.
			return
		}
		g.Go(func() error {
			defer sem.Release(1)
			s.controller.Process(gctx, cand)
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		logger.Debug("scheduler: cycle ended early", "error", err)
	}
}
