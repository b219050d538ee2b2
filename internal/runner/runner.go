// Package runner executes document jobs one at a time on a single background
// goroutine, keeping the caller responsive while preserving per-job page
// order.
package runner

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mangapdf/internal/assembler"
	"mangapdf/internal/logger"
)

// Outcome reports one finished job.
type Outcome struct {
	JobID  uuid.UUID
	Result *assembler.Result
	Err    error
}

type submission struct {
	id       uuid.UUID
	job      assembler.Job
	progress assembler.ProgressFunc
	done     chan Outcome
}

type Runner struct {
	assembler *assembler.Assembler
	logger    zerolog.Logger
	jobs      chan submission
	wg        sync.WaitGroup
}

func New(a *assembler.Assembler) *Runner {
	return &Runner{
		assembler: a,
		logger:    logger.GetLogger("runner"),
		jobs:      make(chan submission, 16),
	}
}

// Start launches the worker goroutine. Jobs are consumed strictly
// sequentially; a canceled ctx fails the running job at its next page
// boundary and stops the worker.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				r.logger.Info().Msg("Runner stopping")
				return
			case sub, ok := <-r.jobs:
				if !ok {
					return
				}
				r.run(ctx, sub)
			}
		}
	}()
}

func (r *Runner) run(ctx context.Context, sub submission) {
	r.logger.Info().
		Str("job_id", sub.id.String()).
		Int("images", len(sub.job.Paths)).
		Str("output", sub.job.OutputPath).
		Msg("Running job")

	result, err := r.assembler.Generate(ctx, sub.job, sub.progress)
	if err != nil {
		r.logger.Error().Err(err).Str("job_id", sub.id.String()).Msg("Job failed")
	} else {
		r.logger.Info().
			Str("job_id", sub.id.String()).
			Int("pages", result.Pages).
			Int("skipped", len(result.Skipped)).
			Msg("Job completed")
	}

	sub.done <- Outcome{JobID: sub.id, Result: result, Err: err}
}

// Submit queues a job and returns a channel that receives its Outcome.
// Jobs run in submission order; Submit blocks only when the queue is full.
// Submit must not be called after Stop. If the runner's context is canceled
// before a queued job starts, its outcome channel never fires.
func (r *Runner) Submit(job assembler.Job, progress assembler.ProgressFunc) <-chan Outcome {
	sub := submission{
		id:       uuid.New(),
		job:      job,
		progress: progress,
		done:     make(chan Outcome, 1),
	}
	r.jobs <- sub
	return sub.done
}

// Stop closes the job queue and waits for the worker to drain.
func (r *Runner) Stop() {
	close(r.jobs)
	r.wg.Wait()
	r.logger.Info().Msg("Runner stopped")
}
