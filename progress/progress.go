// Package progress keeps aggregated job counters for one batch run. The
// tracker travels in the run context, so every component holding the
// context can update the counters without a global registry.
package progress

import (
	"context"
	"sync"
	"time"
)

// Progress is a point-in-time view of one batch's counters.
type Progress struct {
	BatchID   string
	Kind      string
	StartedAt time.Time

	TotalJobs     int
	CompletedJobs int
	SkippedJobs   int
	FailedJobs    int
	RunningJobs   int
	PendingJobs   int
}

// Delta is an incremental counter change. Fields are signed, so a job
// leaving one state and entering another is a single Update call.
type Delta struct {
	Total     int
	Completed int
	Skipped   int
	Failed    int
	Running   int
	Pending   int
}

// Tracker accumulates deltas for one batch. Safe for concurrent use.
type Tracker struct {
	mux      sync.Mutex
	current  Progress
	onChange func(Progress)
}

// NewTracker creates a tracker for the given batch identity.
func NewTracker(batchID, kind string, onChange func(Progress)) *Tracker {
	return &Tracker{
		current:  Progress{BatchID: batchID, Kind: kind, StartedAt: time.Now()},
		onChange: onChange,
	}
}

// Update applies the delta. A registered onChange callback receives the
// updated snapshot outside the critical section, so it may render or do
// I/O without blocking the scheduler.
func (t *Tracker) Update(d Delta) {
	if t == nil {
		return
	}
	t.mux.Lock()
	t.current.TotalJobs += d.Total
	t.current.CompletedJobs += d.Completed
	t.current.SkippedJobs += d.Skipped
	t.current.FailedJobs += d.Failed
	t.current.RunningJobs += d.Running
	t.current.PendingJobs += d.Pending
	snapshot := t.current
	cb := t.onChange
	t.mux.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Progress {
	if t == nil {
		return Progress{}
	}
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.current
}

// OnChange registers the callback invoked after every Update, replacing
// any previous one. Nil disables it.
func (t *Tracker) OnChange(cb func(Progress)) {
	if t == nil {
		return
	}
	t.mux.Lock()
	t.onChange = cb
	t.mux.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker embeds a fresh tracker in a derived context and returns
// both.
func WithNewTracker(ctx context.Context, batchID, kind string, onChange func(Progress)) (context.Context, *Tracker) {
	if ctx == nil {
		ctx = context.Background()
	}
	tracker := NewTracker(batchID, kind, onChange)
	return context.WithValue(ctx, trackerKey, tracker), tracker
}

// FromContext extracts the tracker, reporting whether ctx carries one.
func FromContext(ctx context.Context) (*Tracker, bool) {
	if ctx == nil {
		return nil, false
	}
	tracker, ok := ctx.Value(trackerKey).(*Tracker)
	return tracker, ok
}

// GetSnapshot combines FromContext and Snapshot.
func GetSnapshot(ctx context.Context) (Progress, bool) {
	if tracker, ok := FromContext(ctx); ok {
		return tracker.Snapshot(), true
	}
	return Progress{}, false
}

// UpdateCtx applies the delta to the context's tracker when one is
// present, and is a no-op otherwise.
func UpdateCtx(ctx context.Context, d Delta) {
	if tracker, ok := FromContext(ctx); ok {
		tracker.Update(d)
	}
}
