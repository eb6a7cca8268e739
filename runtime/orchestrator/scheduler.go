package orchestrator

import (
	"context"
	"fmt"

	"github.com/visimlab/simrecon/model/types"
	"github.com/visimlab/simrecon/progress"
	"github.com/visimlab/simrecon/tracing"
)

// runJob takes one job through all phases. A phase error fails the job;
// cleanup still runs.
func (s *Service) runJob(ctx context.Context, run *jobRun) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("job.run %s", run.job.ID), "INTERNAL")
	defer func() { tracing.EndSpan(span, run.job.Err()) }()

	run.start(ctx)
	if err := run.prepare(ctx); err != nil {
		run.job.Fail(err)
	} else if err := run.invoke(ctx); err != nil {
		run.job.Fail(err)
	} else if err := run.postProcess(ctx); err != nil {
		run.job.Fail(err)
	}
	run.finish(ctx)
	run.complete(ctx)
}

// runSequential processes jobs strictly in order, one at a time.
func (s *Service) runSequential(ctx context.Context, runs []*jobRun) {
	for _, run := range runs {
		s.runJob(ctx, run)
	}
}

// runPaired processes jobs over exactly two workers: one drives preparation
// and engine invocation, the other post-processing and cleanup, so the
// invocation of one job overlaps the post-processing of the previous one.
// Job order is preserved. Only the invocation side captures the process-wide
// streams, so the two workers never contend for the redirect point.
func (s *Service) runPaired(ctx context.Context, runs []*jobRun) {
	invoked := make(chan *jobRun)
	go func() {
		defer close(invoked)
		for _, run := range runs {
			run.start(ctx)
			if err := run.prepare(ctx); err != nil {
				run.job.Fail(err)
			} else if err := run.invoke(ctx); err != nil {
				run.job.Fail(err)
			}
			invoked <- run
		}
	}()
	for run := range invoked {
		if run.job.Err() == nil {
			if err := run.postProcess(ctx); err != nil {
				run.job.Fail(err)
			}
		}
		run.finish(ctx)
		run.complete(ctx)
	}
}

// runPooled submits whole jobs to the caller-owned pool and awaits every
// handle. A submission failure fails that job only.
func (s *Service) runPooled(ctx context.Context, pool types.Submitter, runs []*jobRun) {
	handles := make([]types.Handle, len(runs))
	for i, run := range runs {
		run := run
		handle, err := pool.Submit(ctx, func() error {
			s.runJob(ctx, run)
			return run.job.Err()
		})
		if err != nil {
			run.job.Fail(fmt.Errorf("failed to submit job %v: %w", run.job.ID, err))
			run.finish(ctx)
			progress.UpdateCtx(ctx, progress.Delta{Pending: -1, Failed: 1})
			continue
		}
		handles[i] = handle
	}
	for _, handle := range handles {
		if handle == nil {
			continue
		}
		// Job state carries any failure; the handle only signals completion.
		_ = handle.Wait(ctx)
	}
}
