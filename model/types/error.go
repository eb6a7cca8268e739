package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors classifying every failure this module can produce. Callers
// match with errors.Is; the human-readable detail travels in the wrapping
// message.
var (
	// ErrNotFound indicates a missing file, parent directory or config
	// reference.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a name collision where uniqueness was
	// required, or a named resource collision with fallback disallowed.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalid indicates an invalid configuration key or parameter value.
	ErrInvalid = errors.New("invalid value")

	// ErrUnsupportedPlatform indicates the host OS has no filename rule set.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrConfiguration indicates a referenced configuration source could not
	// be read.
	ErrConfiguration = errors.New("configuration unreadable")

	// ErrIO indicates a stable-storage or uniqueness-exhaustion failure.
	ErrIO = errors.New("i/o failure")

	// ErrRedirect indicates a descriptor-duplication or stream-redirection
	// failure.
	ErrRedirect = errors.New("stream redirection failure")
)

func NewNotFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func NewAlreadyExistsError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAlreadyExists, fmt.Sprintf(format, args...))
}

func NewInvalidError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func NewIOError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIO, fmt.Sprintf(format, args...))
}

// ExitError represents an engine invocation that exited with a non-zero
// status. It wraps the underlying error so consumers can still reach
// OS-level detail through errors.As.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "engine " + e.Command + " exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error chain containing *ExitError.
// Returns (0, false) if the chain carries no ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
