package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/visimlab/simrecon/model/types"
)

// Result is the immutable outcome of one job.
type Result struct {
	JobID     string           `json:"jobId"`
	Input     string           `json:"input"`
	Kind      types.OutputKind `json:"kind"`
	State     string           `json:"state"`
	Outputs   []string         `json:"outputs,omitempty"`
	LogPath   string           `json:"logPath,omitempty"`
	Skipped   []int            `json:"skipped,omitempty"`
	TimeTaken time.Duration    `json:"timeTaken"`
	Err       error            `json:"-"`
}

// Succeeded reports whether the job finished, including partial success
// with skipped channels.
func (r *Result) Succeeded() bool { return r.State == StateDone }

// Partial reports whether the job finished but skipped channels.
func (r *Result) Partial() bool { return r.State == StateDone && len(r.Skipped) > 0 }

// BatchResult aggregates per-job outcomes of one batch. A failed job never
// hides or aborts its siblings; every dispatched job has an entry.
type BatchResult struct {
	Results []*Result `json:"results"`
}

// Failed returns the results of jobs that did not finish.
func (b *BatchResult) Failed() []*Result {
	var out []*Result
	for _, r := range b.Results {
		if !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Err aggregates the failures of the batch, nil when every job finished.
func (b *BatchResult) Err() error {
	var errs []error
	for _, r := range b.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("job %v: %w", r.JobID, r.Err))
		}
	}
	return errors.Join(errs...)
}
