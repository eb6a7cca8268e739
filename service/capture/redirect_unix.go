//go:build unix

package capture

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/visimlab/simrecon/model/types"
)

// redirect points the stdout and stderr descriptors at f. The returned
// function restores the saved descriptors and releases the duplicates.
func redirect(f *os.File) (func() error, error) {
	stdoutFd := int(os.Stdout.Fd())
	stderrFd := int(os.Stderr.Fd())

	savedStdout, err := unix.Dup(stdoutFd)
	if err != nil {
		return nil, fmt.Errorf("%w: dup stdout: %v", types.ErrRedirect, err)
	}
	savedStderr, err := unix.Dup(stderrFd)
	if err != nil {
		_ = unix.Close(savedStdout)
		return nil, fmt.Errorf("%w: dup stderr: %v", types.ErrRedirect, err)
	}

	targetFd := int(f.Fd())
	if err := dupTo(targetFd, stdoutFd); err != nil {
		_ = unix.Close(savedStdout)
		_ = unix.Close(savedStderr)
		return nil, fmt.Errorf("%w: redirect stdout: %v", types.ErrRedirect, err)
	}
	if err := dupTo(targetFd, stderrFd); err != nil {
		// stdout is already pointing at the file; put it back first.
		_ = dupTo(savedStdout, stdoutFd)
		_ = unix.Close(savedStdout)
		_ = unix.Close(savedStderr)
		return nil, fmt.Errorf("%w: redirect stderr: %v", types.ErrRedirect, err)
	}

	return func() error {
		outErr := dupTo(savedStdout, stdoutFd)
		errErr := dupTo(savedStderr, stderrFd)
		_ = unix.Close(savedStdout)
		_ = unix.Close(savedStderr)
		if outErr != nil || errErr != nil {
			return fmt.Errorf("%w: restore: %v", types.ErrRedirect, errors.Join(outErr, errErr))
		}
		return nil
	}, nil
}
