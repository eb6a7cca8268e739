// Package workspace owns the temporary directory tree of a single job:
// creation with optional explicit naming, file tracking, and cleanup that is
// guaranteed to run even when the owner forgets to release the workspace.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/visimlab/simrecon/model/types"
)

var logger = log.WithPrefix("workspace")

// Workspace is an exclusively owned temporary directory. It must never be
// shared between jobs.
type Workspace struct {
	root  string
	named bool

	deleteOnRelease     bool
	ignoreCleanupErrors bool

	mu       sync.Mutex
	files    []string
	released bool
}

type options struct {
	name                string
	allowParents        bool
	allowFallback       bool
	deleteOnRelease     bool
	ignoreCleanupErrors bool
}

// Option customises workspace creation.
type Option func(*options)

// WithName requests the explicit directory `{parent}/{name}` instead of an
// anonymous uniquely-named one.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithParents controls whether a missing parent directory is created
// (default true). When disabled a missing parent is an error.
func WithParents(allow bool) Option {
	return func(o *options) { o.allowParents = allow }
}

// WithFallback controls whether a named-directory collision falls back to an
// anonymous uniquely-named directory under the same parent (default true).
// When disabled the collision is an error.
func WithFallback(allow bool) Option {
	return func(o *options) { o.allowFallback = allow }
}

// WithDelete controls whether Release removes the directory tree (default
// true). Disabling it retains the workspace for inspection.
func WithDelete(delete bool) Option {
	return func(o *options) { o.deleteOnRelease = delete }
}

// WithIgnoreCleanupErrors makes Release swallow (but log) deletion failures.
func WithIgnoreCleanupErrors(ignore bool) Option {
	return func(o *options) { o.ignoreCleanupErrors = ignore }
}

// New creates a workspace directory under parent.
//
// With a name, the target is `{parent}/{name}`; a pre-existing target either
// fails or falls back to an anonymous directory depending on WithFallback.
// Without a name an anonymous uniquely-named directory is created.
func New(parent string, opts ...Option) (*Workspace, error) {
	o := &options{allowParents: true, allowFallback: true, deleteOnRelease: true}
	for _, opt := range opts {
		opt(o)
	}

	if o.name != "" {
		target := filepath.Join(parent, o.name)
		if _, err := os.Stat(parent); os.IsNotExist(err) {
			if !o.allowParents {
				return nil, types.NewNotFoundError("parent directory %v does not exist", parent)
			}
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create parent directory %v: %w", parent, err)
			}
		}
		if _, err := os.Stat(target); err == nil {
			if !o.allowFallback {
				return nil, types.NewAlreadyExistsError("directory cannot be created as %v exists", target)
			}
			// Fall through to an anonymous directory under the same parent.
		} else {
			if err := os.Mkdir(target, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create workspace %v: %w", target, err)
			}
			return track(target, true, o), nil
		}
	}

	prefix := "workspace-"
	if o.name != "" {
		prefix = o.name + "-"
	}
	root, err := os.MkdirTemp(parent, prefix)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewNotFoundError("parent directory %v does not exist", parent)
		}
		return nil, fmt.Errorf("failed to create workspace under %v: %w", parent, err)
	}
	return track(root, o.name != "", o), nil
}

func track(root string, named bool, o *options) *Workspace {
	w := &Workspace{
		root:                root,
		named:               named,
		deleteOnRelease:     o.deleteOnRelease,
		ignoreCleanupErrors: o.ignoreCleanupErrors,
	}
	// Guarded cleanup: if the owner drops the workspace without Release the
	// directory is still removed, but the missed explicit-release path must
	// stay observable.
	runtime.SetFinalizer(w, func(w *Workspace) {
		logger.Warn("implicitly cleaning up workspace", "root", w.root)
		if err := w.cleanup(); err != nil {
			logger.Warn("implicit workspace cleanup failed", "root", w.root, "error", err)
		}
	})
	return w
}

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// Register records a file allocated inside the workspace for diagnostics.
func (w *Workspace) Register(path string) {
	w.mu.Lock()
	w.files = append(w.files, path)
	w.mu.Unlock()
}

// Files returns the allocated files recorded so far.
func (w *Workspace) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.files))
	copy(out, w.files)
	return out
}

// Release removes the workspace tree according to its cleanup policy and
// disarms the implicit-cleanup guard. It is safe to call more than once.
func (w *Workspace) Release() error {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return nil
	}
	w.released = true
	w.mu.Unlock()

	runtime.SetFinalizer(w, nil)

	if !w.deleteOnRelease {
		logger.Debug("workspace retained", "root", w.root)
		return nil
	}
	if err := os.RemoveAll(w.root); err != nil {
		if w.ignoreCleanupErrors {
			logger.Warn("ignoring workspace cleanup failure", "root", w.root, "error", err)
			return nil
		}
		return fmt.Errorf("failed to remove workspace %v: %w", w.root, err)
	}
	return nil
}

// cleanup is the implicit path: policy-respecting, errors never propagate.
func (w *Workspace) cleanup() error {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return nil
	}
	w.released = true
	w.mu.Unlock()

	if !w.deleteOnRelease {
		return nil
	}
	return os.RemoveAll(w.root)
}
