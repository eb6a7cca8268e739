// Package job models one unit of OTF-conversion or reconstruction work: one
// input file, its resolved per-channel parameters, its owned workspace, and
// a one-directional state machine recording progress.
package job

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/visimlab/simrecon/internal/clock"
	"github.com/visimlab/simrecon/internal/idgen"
	"github.com/visimlab/simrecon/model/types"
	"github.com/visimlab/simrecon/service/settings"
	"github.com/visimlab/simrecon/service/workspace"
)

// Job state constants. Transitions are one-directional; any state may move
// directly to StateFailed.
const (
	StatePending           = "pending"
	StateConfigResolved    = "configResolved"
	StateWorkspacePrepared = "workspacePrepared"
	StateInvoking          = "invoking"
	StatePostProcessing    = "postProcessing"
	StateCleanup           = "cleanup"
	StateDone              = "done"
	StateFailed            = "failed"
)

var stateOrder = map[string]int{
	StatePending:           0,
	StateConfigResolved:    1,
	StateWorkspacePrepared: 2,
	StateInvoking:          3,
	StatePostProcessing:    4,
	StateCleanup:           5,
	StateDone:              6,
	StateFailed:            7,
}

// Job is created by the orchestrator at dispatch and destroyed (cleanup run)
// at completion or failure. Its workspace is exclusively owned; channel
// configurations are immutable shared references.
type Job struct {
	ID    string           `json:"id"`
	Input string           `json:"input"`
	Kind  types.OutputKind `json:"kind"`

	Channels  []*settings.ChannelConfig `json:"-"`
	Workspace *workspace.Workspace      `json:"-"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	mu      sync.RWMutex
	state   string
	err     error
	skipped []int
	outputs []string
	logPath string
}

// New creates a pending job for one input file.
func New(input string, kind types.OutputKind) *Job {
	now := clock.Now()
	return &Job{
		ID:        fmt.Sprintf("%s-%s", Stem(input), idgen.Short()),
		Input:     input,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
		state:     StatePending,
	}
}

// Stem returns a path's filename without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// State returns the current state.
func (j *Job) State() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Advance moves the job forward to state. Regressions and transitions out
// of a terminal state are ignored.
func (j *Job) Advance(state string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateDone || j.state == StateFailed {
		return
	}
	if stateOrder[state] <= stateOrder[j.state] {
		return
	}
	j.state = state
	j.UpdatedAt = clock.Now()
	if state == StateDone {
		now := j.UpdatedAt
		j.FinishedAt = &now
	}
}

// Fail moves the job to the terminal failed state, recording err. The first
// failure wins.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateDone || j.state == StateFailed {
		return
	}
	j.state = StateFailed
	j.err = err
	now := clock.Now()
	j.UpdatedAt = now
	j.FinishedAt = &now
}

// Err returns the recorded failure, if any.
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// AddOutput records a finished output artifact.
func (j *Job) AddOutput(path string) {
	j.mu.Lock()
	j.outputs = append(j.outputs, path)
	j.mu.Unlock()
}

// Outputs returns the output artifacts recorded so far.
func (j *Job) Outputs() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]string, len(j.outputs))
	copy(out, j.outputs)
	return out
}

// AddSkipped records a wavelength skipped under allow-partial.
func (j *Job) AddSkipped(wavelength int) {
	j.mu.Lock()
	j.skipped = append(j.skipped, wavelength)
	j.mu.Unlock()
}

// Skipped returns the wavelengths skipped so far.
func (j *Job) Skipped() []int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]int, len(j.skipped))
	copy(out, j.skipped)
	return out
}

// SetLogPath records where the job's captured engine output lives.
func (j *Job) SetLogPath(path string) {
	j.mu.Lock()
	j.logPath = path
	j.mu.Unlock()
}

// LogPath returns the job's captured-output location.
func (j *Job) LogPath() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.logPath
}

// Result snapshots the job outcome.
func (j *Job) Result() *Result {
	j.mu.RLock()
	defer j.mu.RUnlock()

	r := &Result{
		JobID:   j.ID,
		Input:   j.Input,
		Kind:    j.Kind,
		State:   j.state,
		LogPath: j.logPath,
		Err:     j.err,
	}
	r.Outputs = make([]string, len(j.outputs))
	copy(r.Outputs, j.outputs)
	r.Skipped = make([]int, len(j.skipped))
	copy(r.Skipped, j.skipped)
	if j.FinishedAt != nil {
		r.TimeTaken = j.FinishedAt.Sub(j.CreatedAt)
	}
	return r
}
