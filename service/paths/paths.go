// Package paths builds deterministic, OS-valid, collision-avoided output and
// temporary file paths for engine artifacts.
package paths

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/viant/afs"

	"github.com/visimlab/simrecon/internal/idgen"
	"github.com/visimlab/simrecon/model/types"
)

var logger = log.WithPrefix("paths")

// DefaultMaxAttempts bounds the uniqueness probe sequence.
const DefaultMaxAttempts = 99

// timestampLayout avoids characters invalid on any supported platform; the
// ISO form cannot be used because colons are invalid in Windows paths.
const timestampLayout = "20060102_150405"

// Allocator resolves output and temporary paths against a file storage
// service.
type Allocator struct {
	fs afs.Service
}

// Option customises an Allocator.
type Option func(*Allocator)

// WithFS overrides the file storage service used for existence probes.
func WithFS(fs afs.Service) Option {
	return func(a *Allocator) { a.fs = fs }
}

// New creates an Allocator backed by the default afs service unless
// overridden.
func New(options ...Option) *Allocator {
	a := &Allocator{}
	for _, option := range options {
		option(a)
	}
	if a.fs == nil {
		a.fs = afs.New()
	}
	return a
}

// OutputSpec describes one output path request.
type OutputSpec struct {
	// SourcePath is the input file the output derives its stem from.
	SourcePath string
	// Kind selects the fixed type token appended to the stem.
	Kind types.OutputKind
	// Suffix is the output file extension, including the dot.
	Suffix string
	// OutputDirectory overrides the source file's directory when non-empty.
	OutputDirectory string
	// Wavelength, when positive, is appended to the stem.
	Wavelength int
	// AddTimestamp appends the source file's modification time.
	AddTimestamp bool
	// EnsureUnique probes numbered variants until a non-existing path is
	// found. The probe sequence is not atomic against concurrent allocators
	// targeting the same directory; callers requiring atomicity must combine
	// this with exclusive file creation at write time.
	EnsureUnique bool
	// MaxAttempts bounds the probe sequence; defaults to DefaultMaxAttempts.
	MaxAttempts int
}

// OutputPath resolves the output path for spec. The resulting filename is
// `{source_stem}_{TYPE}[_{wavelength}][_{timestamp}]{suffix}`, sanitized per
// the current platform before any filesystem probing.
func (a *Allocator) OutputPath(ctx context.Context, spec OutputSpec) (string, error) {
	stub, ok := spec.Kind.Stub()
	if !ok {
		return "", types.NewInvalidError("unknown output kind %q", spec.Kind)
	}

	parts := []string{stem(spec.SourcePath), stub}
	if spec.Wavelength > 0 {
		parts = append(parts, strconv.Itoa(spec.Wavelength))
	}
	if spec.AddTimestamp {
		object, err := a.fs.Object(ctx, spec.SourcePath)
		if err != nil {
			return "", types.NewNotFoundError("cannot stat source %v: %v", spec.SourcePath, err)
		}
		parts = append(parts, object.ModTime().Format(timestampLayout))
	}

	directory := spec.OutputDirectory
	if directory == "" {
		directory = filepath.Dir(spec.SourcePath)
	}

	// The whole filename is sanitized, suffix included; a suffix alone could
	// otherwise smuggle invalid or trailing-strip characters past the rules.
	filename, err := EnsureValidFilename(strings.Join(parts, "_") + spec.Suffix)
	if err != nil {
		return "", err
	}
	suffix, err := EnsureValidFilename(spec.Suffix)
	if err != nil {
		return "", err
	}
	fileStem := strings.TrimSuffix(filename, suffix)
	if fileStem == filename {
		// Trailing stripping consumed the suffix; number at the very end.
		suffix = ""
	}

	if spec.EnsureUnique {
		return a.EnsureUniquePath(ctx, directory, fileStem, suffix, spec.MaxAttempts)
	}
	return filepath.Join(directory, filename), nil
}

// EnsureUniquePath returns `{stem}{suffix}` under directory if it does not
// exist, otherwise the first non-existing `{stem}_{i}{suffix}` for i in
// [1, maxAttempts]. maxAttempts <= 1 fails validation before any probing.
func (a *Allocator) EnsureUniquePath(ctx context.Context, directory, stem, suffix string, maxAttempts int) (string, error) {
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if maxAttempts <= 1 {
		return "", types.NewInvalidError("maxAttempts must be >1, got %d", maxAttempts)
	}

	path := filepath.Join(directory, stem+suffix)
	exists, err := a.fs.Exists(ctx, path)
	if err != nil {
		return "", types.NewIOError("cannot probe %v: %v", path, err)
	}
	if !exists {
		return path, nil
	}

	var probe string
	for i := 1; i <= maxAttempts; i++ {
		probe = filepath.Join(directory, fmt.Sprintf("%s_%d%s", stem, i, suffix))
		exists, err = a.fs.Exists(ctx, probe)
		if err != nil {
			return "", types.NewIOError("cannot probe %v: %v", probe, err)
		}
		if !exists {
			logger.Debug("path was not unique", "path", path, "using", probe)
			return probe, nil
		}
	}
	return "", types.NewIOError("failed to create unique file path after %d attempts, final attempt was %v", maxAttempts, probe)
}

// TemporaryPath returns `{stem}_{token}{suffix}` under directory with a
// random unique token. A collision with the generated name signals a deeper
// problem rather than bad luck, so it fails immediately without retrying.
func (a *Allocator) TemporaryPath(ctx context.Context, directory, stem, suffix string) (string, error) {
	path := filepath.Join(directory, fmt.Sprintf("%s_%s%s", stem, idgen.New(), suffix))
	exists, err := a.fs.Exists(ctx, path)
	if err != nil {
		return "", types.NewIOError("cannot probe %v: %v", path, err)
	}
	if exists {
		return "", types.NewAlreadyExistsError("temporary path %v already exists", path)
	}
	return path, nil
}

// stem returns the filename without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
