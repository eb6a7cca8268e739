// Package capture redirects the OS-level standard output and error streams
// to a log file for the duration of one operation. Redirection happens at
// the file-descriptor level because the wrapped native engine writes its
// diagnostics directly to the low-level streams, bypassing Go's writers.
package capture

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var logger = log.WithPrefix("capture")

// redirectMu serialises access to the process-wide redirect point. The
// standard stream descriptors are global state, so two operations must never
// redirect concurrently; concurrent phases queue here instead.
var redirectMu sync.Mutex

// Run redirects stdout and stderr to logPath while fn runs, restoring the
// original destinations on every exit path. When the log file cannot be
// opened or the descriptors cannot be duplicated, the operation still runs,
// uncaptured, and the failure is logged. On success the captured file is
// forced to stable storage before the original destinations are restored.
func Run(logPath string, fn func() error) error {
	redirectMu.Lock()
	defer redirectMu.Unlock()

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		logger.Error("failed to create log file, output will not be captured", "path", logPath, "error", err)
		return fn()
	}

	restore, err := redirect(file)
	if err != nil {
		logger.Error("failed to redirect output, output will not be captured", "path", logPath, "error", err)
		_ = file.Close()
		return fn()
	}

	defer func() {
		if err := file.Sync(); err != nil {
			logger.Error("failed to sync captured log", "path", logPath, "error", err)
		}
		if err := restore(); err != nil {
			logger.Error("failed to restore output streams", "error", err)
		}
		_ = file.Close()
	}()

	return fn()
}
