package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdate(t *testing.T) {
	tracker := NewTracker("", "", nil)
	tracker.Update(Delta{Total: 4, Pending: 4})
	tracker.Update(Delta{Running: 1, Pending: -1})
	tracker.Update(Delta{Running: -1, Completed: 1})

	snapshot := tracker.Snapshot()
	assert.EqualValues(t, 4, snapshot.TotalJobs)
	assert.EqualValues(t, 3, snapshot.PendingJobs)
	assert.EqualValues(t, 0, snapshot.RunningJobs)
	assert.EqualValues(t, 1, snapshot.CompletedJobs)
}

func TestUpdateConcurrent(t *testing.T) {
	tracker := NewTracker("", "", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Update(Delta{Completed: 1})
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 50, tracker.Snapshot().CompletedJobs)
}

func TestOnChange(t *testing.T) {
	tracker := NewTracker("", "", nil)
	var seen []int
	tracker.OnChange(func(p Progress) { seen = append(seen, p.CompletedJobs) })
	tracker.Update(Delta{Completed: 1})
	tracker.Update(Delta{Completed: 1})
	assert.EqualValues(t, []int{1, 2}, seen)
}

func TestContextHelpers(t *testing.T) {
	ctx, tracker := WithNewTracker(context.Background(), "batch-1", "recon", nil)
	assert.NotNil(t, tracker)

	UpdateCtx(ctx, Delta{Total: 2, Failed: 1})
	snapshot, ok := GetSnapshot(ctx)
	assert.True(t, ok)
	assert.EqualValues(t, "batch-1", snapshot.BatchID)
	assert.EqualValues(t, 2, snapshot.TotalJobs)
	assert.EqualValues(t, 1, snapshot.FailedJobs)

	// A context without a tracker is a silent no-op.
	UpdateCtx(context.Background(), Delta{Total: 1})
	_, ok = GetSnapshot(context.Background())
	assert.False(t, ok)
}

func TestNilTracker(t *testing.T) {
	var tracker *Tracker
	tracker.Update(Delta{Total: 1})
	assert.EqualValues(t, Progress{}, tracker.Snapshot())
}
