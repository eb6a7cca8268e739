//go:build unix

package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCapturesStreams(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	err := Run(logPath, func() error {
		fmt.Fprintln(os.Stdout, "stdout marker")
		fmt.Fprintln(os.Stderr, "stderr marker")
		return nil
	})
	assert.NoError(t, err)

	data, readErr := os.ReadFile(logPath)
	assert.NoError(t, readErr)
	assert.Contains(t, string(data), "stdout marker")
	assert.Contains(t, string(data), "stderr marker")

	// Writes outside the scope reach the original destinations again.
	fmt.Fprintln(os.Stdout, "after scope")
	after, readErr := os.ReadFile(logPath)
	assert.NoError(t, readErr)
	assert.NotContains(t, string(after), "after scope")
}

func TestRunPropagatesError(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	boom := errors.New("engine blew up")

	err := Run(logPath, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunUncapturedOnBadLogPath(t *testing.T) {
	// The log destination cannot be created; the operation still runs.
	ran := false
	err := Run(filepath.Join(t.TempDir(), "missing", "run.log"), func() error {
		ran = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, ran)
}
