package job

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/visimlab/simrecon/model/types"
)

func TestNew(t *testing.T) {
	j := New("/data/cells.dv", types.KindRecon)
	assert.True(t, strings.HasPrefix(j.ID, "cells-"))
	assert.EqualValues(t, "/data/cells.dv", j.Input)
	assert.EqualValues(t, StatePending, j.State())
	assert.NoError(t, j.Err())
}

func TestStem(t *testing.T) {
	testCases := []struct {
		path   string
		expect string
	}{
		{"/data/cells.dv", "cells"},
		{"cells.ome.tiff", "cells.ome"},
		{"noext", "noext"},
	}
	for _, tc := range testCases {
		assert.EqualValues(t, tc.expect, Stem(tc.path), tc.path)
	}
}

func TestAdvance(t *testing.T) {
	j := New("cells.dv", types.KindRecon)

	for _, state := range []string{
		StateConfigResolved,
		StateWorkspacePrepared,
		StateInvoking,
		StatePostProcessing,
		StateCleanup,
		StateDone,
	} {
		j.Advance(state)
		assert.EqualValues(t, state, j.State())
	}
	assert.NotNil(t, j.FinishedAt)

	// Terminal states never move.
	j.Advance(StateInvoking)
	assert.EqualValues(t, StateDone, j.State())
}

func TestAdvanceNeverMovesBackwards(t *testing.T) {
	j := New("cells.dv", types.KindRecon)
	j.Advance(StateInvoking)
	j.Advance(StateConfigResolved)
	assert.EqualValues(t, StateInvoking, j.State())
}

func TestFail(t *testing.T) {
	j := New("cells.dv", types.KindRecon)
	j.Advance(StateInvoking)
	boom := errors.New("engine blew up")
	j.Fail(boom)

	assert.EqualValues(t, StateFailed, j.State())
	assert.ErrorIs(t, j.Err(), boom)
	assert.NotNil(t, j.FinishedAt)

	// The first failure wins.
	j.Fail(errors.New("second"))
	assert.ErrorIs(t, j.Err(), boom)
}

func TestResult(t *testing.T) {
	j := New("cells.dv", types.KindRecon)
	j.AddOutput("cells_recon.dv")
	j.AddSkipped(642)
	j.SetLogPath("cells_recon.log")
	j.Advance(StateDone)

	result := j.Result()
	assert.EqualValues(t, j.ID, result.JobID)
	assert.EqualValues(t, StateDone, result.State)
	assert.EqualValues(t, []string{"cells_recon.dv"}, result.Outputs)
	assert.EqualValues(t, []int{642}, result.Skipped)
	assert.EqualValues(t, "cells_recon.log", result.LogPath)
	assert.True(t, result.Succeeded())
	assert.True(t, result.Partial())
}

func TestBatchResultErr(t *testing.T) {
	ok := New("a.dv", types.KindRecon)
	ok.Advance(StateDone)
	bad := New("b.dv", types.KindRecon)
	bad.Fail(errors.New("engine blew up"))

	batch := &BatchResult{Results: []*Result{ok.Result(), bad.Result()}}
	assert.Len(t, batch.Failed(), 1)
	err := batch.Err()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "engine blew up")

	allGood := &BatchResult{Results: []*Result{ok.Result()}}
	assert.NoError(t, allGood.Err())
}
