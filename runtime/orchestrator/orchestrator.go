// Package orchestrator drives reconstruction jobs end to end: configuration
// resolution, workspace preparation, engine invocation under output capture,
// post-processing and cleanup. Jobs run under one of three scheduling
// regimes selected per batch.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/viant/afs"

	"github.com/visimlab/simrecon/model/types"
	"github.com/visimlab/simrecon/progress"
	"github.com/visimlab/simrecon/runtime/job"
	"github.com/visimlab/simrecon/service/capture"
	"github.com/visimlab/simrecon/service/paths"
	"github.com/visimlab/simrecon/service/settings"
	"github.com/visimlab/simrecon/service/workspace"
	"github.com/visimlab/simrecon/tracing"
)

var logger = log.WithPrefix("orchestrator")

// DefaultSuffix is the output artifact extension used when none is given.
const DefaultSuffix = ".dv"

// Options control one batch run.
type Options struct {
	// OutputDirectory overrides each input file's directory as the final
	// artifact destination.
	OutputDirectory string
	// ProcessingDirectory hosts per-job workspaces when set. It is removed
	// after the batch if this run created it and it ended up empty.
	ProcessingDirectory string
	// Suffix is the final artifact extension, including the dot.
	Suffix string
	// Overwrite replaces existing outputs instead of probing unique names.
	Overwrite bool
	// Cleanup removes each job's workspace once the job finishes.
	Cleanup bool
	// StitchChannels combines per-channel artifacts into one multi-channel
	// output when a stitcher is available.
	StitchChannels bool
	// AllowPartial skips channels without usable configuration instead of
	// failing the job.
	AllowPartial bool
	// AddTimestamp appends the input's modification time to output names.
	AddTimestamp bool
	// MaxAttempts bounds unique-name probing.
	MaxAttempts int

	// ParallelProcess pipelines invocation and post-processing of different
	// jobs over exactly two workers. Ignored when Pool is set.
	ParallelProcess bool
	// Pool, when set, runs whole jobs on a caller-owned worker pool.
	Pool types.Submitter

	// OTFOverrides and ReconOverrides are run-level parameter layers merged
	// on top of the resolved channel configuration. Nil values are skipped,
	// they cannot clear a configured setting.
	OTFOverrides   map[string]any
	ReconOverrides map[string]any

	// Shape and Centre crop the input before OTF conversion.
	Shape  []int
	Centre []float64
}

// DefaultOptions returns the baseline batch options.
func DefaultOptions() Options {
	return Options{
		Suffix:         DefaultSuffix,
		Cleanup:        true,
		StitchChannels: true,
		MaxAttempts:    paths.DefaultMaxAttempts,
	}
}

// Service schedules and runs jobs.
type Service struct {
	fs        afs.Service
	allocator *paths.Allocator
	invoker   types.Invoker
	stitcher  types.Stitcher
	lister    types.ChannelLister
}

// Option customises the orchestrator.
type Option func(*Service)

// WithFS overrides the file storage service.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithAllocator overrides the output path allocator.
func WithAllocator(allocator *paths.Allocator) Option {
	return func(s *Service) { s.allocator = allocator }
}

// WithStitcher supplies the channel stitcher.
func WithStitcher(stitcher types.Stitcher) Option {
	return func(s *Service) { s.stitcher = stitcher }
}

// WithChannelLister supplies the dataset channel lister.
func WithChannelLister(lister types.ChannelLister) Option {
	return func(s *Service) { s.lister = lister }
}

// New creates an orchestrator around the supplied engine invoker.
func New(invoker types.Invoker, options ...Option) (*Service, error) {
	if invoker == nil {
		return nil, types.NewInvalidError("engine invoker is required")
	}
	s := &Service{invoker: invoker}
	for _, option := range options {
		option(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.allocator == nil {
		s.allocator = paths.New(paths.WithFS(s.fs))
	}
	return s, nil
}

// RunBatch processes the inputs under the scheduling regime the options
// select: a caller-owned pool when one is supplied, the two-worker pipeline
// when ParallelProcess is set, otherwise strictly sequential. Per-job
// failures never abort the batch; they are surfaced in the returned results
// once every job has completed.
func (s *Service) RunBatch(ctx context.Context, manager *settings.Manager, inputs []string, kind types.OutputKind, opts Options) (result *job.BatchResult, err error) {
	if manager == nil {
		return nil, types.NewInvalidError("configuration manager is required")
	}
	if len(inputs) == 0 {
		return nil, types.NewInvalidError("no input files given")
	}
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = paths.DefaultMaxAttempts
	}

	ctx, span := tracing.StartSpan(ctx, "orchestrator.RunBatch", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{
		"batch.kind": string(kind),
		"batch.size": strconv.Itoa(len(inputs)),
	})

	runs := make([]*jobRun, len(inputs))
	for i, input := range inputs {
		runs[i] = &jobRun{service: s, manager: manager, job: job.New(input, kind), opts: opts}
	}
	progress.UpdateCtx(ctx, progress.Delta{Total: len(runs), Pending: len(runs)})

	switch {
	case opts.Pool != nil:
		if opts.ParallelProcess {
			logger.Debug("worker pool supplied, parallelProcess has no effect")
		}
		s.runPooled(ctx, opts.Pool, runs)
	case opts.ParallelProcess && len(runs) > 1:
		s.runPaired(ctx, runs)
	default:
		s.runSequential(ctx, runs)
	}

	result = &job.BatchResult{Results: make([]*job.Result, len(runs))}
	for i, run := range runs {
		result.Results[i] = run.job.Result()
	}
	return result, nil
}

// jobRun carries the transient state of one job across its phases.
type jobRun struct {
	service *Service
	manager *settings.Manager
	job     *job.Job
	opts    Options

	guard     *workspace.EmptyDirGuard
	workspace *workspace.Workspace

	// Per processed channel, index-aligned.
	wavelengths []int
	artifacts   []string
	logFiles    []string
}

func (r *jobRun) start(ctx context.Context) {
	progress.UpdateCtx(ctx, progress.Delta{Running: 1, Pending: -1})
	logger.Info("processing", "job", r.job.ID, "kind", r.job.Kind, "input", r.job.Input)
}

func (r *jobRun) complete(ctx context.Context) {
	delta := progress.Delta{Running: -1}
	if err := r.job.Err(); err != nil {
		delta.Failed = 1
		logger.Error("job failed", "job", r.job.ID, "input", r.job.Input, "error", err)
	} else {
		delta.Completed = 1
		delta.Skipped = len(r.job.Skipped())
		logger.Info("job completed", "job", r.job.ID, "outputs", r.job.Outputs())
	}
	progress.UpdateCtx(ctx, delta)
}

// prepare resolves the job's channels and creates its workspace.
func (r *jobRun) prepare(ctx context.Context) error {
	wavelengths, err := r.resolveWavelengths(ctx)
	if err != nil {
		return err
	}
	for _, wavelength := range wavelengths {
		channel, ok := r.manager.Resolve(wavelength)
		if ok && r.job.Kind == types.KindRecon && channel.OTFPath == "" {
			ok = false
		}
		if !ok {
			if r.opts.AllowPartial {
				logger.Warn("skipping channel without usable configuration", "job", r.job.ID, "wavelength", wavelength)
				r.job.AddSkipped(wavelength)
				continue
			}
			return types.NewNotFoundError("no usable configuration for channel %d of %v", wavelength, r.job.Input)
		}
		r.job.Channels = append(r.job.Channels, channel)
	}
	if len(r.job.Channels) == 0 {
		return types.NewInvalidError("no processable channels for %v", r.job.Input)
	}
	r.job.Advance(job.StateConfigResolved)

	parent := r.opts.ProcessingDirectory
	if parent == "" {
		parent = r.outputDirectory()
	} else {
		r.guard = workspace.NewEmptyDirGuard(parent)
	}
	name, err := paths.EnsureValidFilename(r.job.ID)
	if err != nil {
		return err
	}
	ws, err := workspace.New(parent, workspace.WithName(name), workspace.WithDelete(r.opts.Cleanup))
	if err != nil {
		return err
	}
	r.workspace = ws
	r.job.Workspace = ws
	r.job.Advance(job.StateWorkspacePrepared)
	return nil
}

// resolveWavelengths determines which channels the input holds: the dataset
// lister when one is available, otherwise the configured channels.
func (r *jobRun) resolveWavelengths(ctx context.Context) ([]int, error) {
	if r.service.lister != nil {
		wavelengths, err := r.service.lister.Channels(ctx, r.job.Input)
		if err != nil {
			return nil, fmt.Errorf("cannot list channels of %v: %w", r.job.Input, err)
		}
		return wavelengths, nil
	}
	if wavelengths := r.manager.Wavelengths(); len(wavelengths) > 0 {
		return wavelengths, nil
	}
	// Nothing declares the channels; treat the input as single-channel with
	// an unspecified wavelength.
	return []int{0}, nil
}

// invoke runs the engine once per channel, writing artifacts and logs into
// the workspace. Concurrent jobs cannot share the process-wide redirect
// point, so pooled runs hand the engine a dedicated log destination instead
// of capturing the streams.
func (r *jobRun) invoke(ctx context.Context) error {
	r.job.Advance(job.StateInvoking)
	stem := job.Stem(r.job.Input)
	for _, channel := range r.job.Channels {
		channelStem := stem
		if channel.Wavelength > 0 {
			channelStem = fmt.Sprintf("%s_%d", stem, channel.Wavelength)
		}
		artifact, err := r.service.allocator.TemporaryPath(ctx, r.workspace.Root(), channelStem, r.opts.Suffix)
		if err != nil {
			return err
		}
		logPath := filepath.Join(r.workspace.Root(), channelStem+".log")

		request := &types.InvokeRequest{
			Kind:       r.job.Kind,
			InputPath:  r.job.Input,
			OutputPath: artifact,
			Wavelength: channel.Wavelength,
			Workdir:    r.workspace.Root(),
			Shape:      r.opts.Shape,
			Centre:     r.opts.Centre,
		}
		if r.job.Kind == types.KindRecon {
			request.OTFPath = channel.OTFPath
			request.Params = settings.Merge(channel.Recon, r.opts.ReconOverrides, false)
		} else {
			request.Params = settings.Merge(channel.OTF, r.opts.OTFOverrides, false)
		}

		if r.opts.Pool != nil {
			request.LogPath = logPath
			// The engine only appends; make sure the log exists even when
			// the invocation stays silent.
			if file, createErr := os.Create(logPath); createErr == nil {
				_ = file.Close()
			}
			err = r.service.invoker.Invoke(ctx, request)
		} else {
			err = capture.Run(logPath, func() error {
				return r.service.invoker.Invoke(ctx, request)
			})
		}
		if err != nil {
			return fmt.Errorf("channel %d of %v: %w", channel.Wavelength, r.job.Input, err)
		}
		if ok, _ := r.service.fs.Exists(ctx, artifact); !ok {
			return types.NewIOError("engine produced no output for channel %d of %v", channel.Wavelength, r.job.Input)
		}

		r.workspace.Register(artifact)
		r.wavelengths = append(r.wavelengths, channel.Wavelength)
		r.artifacts = append(r.artifacts, artifact)
		r.logFiles = append(r.logFiles, logPath)
	}
	return nil
}

// postProcess moves or stitches workspace artifacts to their final paths and
// combines the per-channel logs.
func (r *jobRun) postProcess(ctx context.Context) error {
	r.job.Advance(job.StatePostProcessing)

	stitch := r.opts.StitchChannels && len(r.artifacts) > 1
	if stitch && r.service.stitcher == nil {
		logger.Debug("no stitcher configured, keeping per-channel outputs", "job", r.job.ID)
		stitch = false
	}

	if stitch {
		target, err := r.outputPath(ctx, 0)
		if err != nil {
			return err
		}
		if err := r.service.stitcher.Stitch(ctx, r.artifacts, target); err != nil {
			return fmt.Errorf("cannot stitch channels of %v: %w", r.job.Input, err)
		}
		r.job.AddOutput(target)
	} else {
		for i, artifact := range r.artifacts {
			target, err := r.outputPath(ctx, r.wavelengths[i])
			if err != nil {
				return err
			}
			if err := r.service.move(ctx, artifact, target, r.opts.Overwrite); err != nil {
				return err
			}
			r.job.AddOutput(target)
		}
	}

	logTarget, err := r.service.allocator.OutputPath(ctx, paths.OutputSpec{
		SourcePath:      r.job.Input,
		Kind:            r.job.Kind,
		Suffix:          ".log",
		OutputDirectory: r.opts.OutputDirectory,
		AddTimestamp:    r.opts.AddTimestamp,
		EnsureUnique:    !r.opts.Overwrite,
		MaxAttempts:     r.opts.MaxAttempts,
	})
	if err != nil {
		return err
	}
	stub, _ := r.job.Kind.Stub()
	header := fmt.Sprintf("%s logs for %s", stub, r.job.Input)
	if err := capture.CombineLogFiles(ctx, r.service.fs, logTarget, header, r.logFiles...); err != nil {
		return err
	}
	r.job.SetLogPath(logTarget)
	return nil
}

// finish releases the workspace and settles the job's terminal state. It
// runs for failed jobs too.
func (r *jobRun) finish(ctx context.Context) {
	r.job.Advance(job.StateCleanup)
	if r.workspace != nil {
		if err := r.workspace.Release(); err != nil && r.job.Err() == nil {
			r.job.Fail(err)
		}
	}
	if r.guard != nil {
		if err := r.guard.Close(); err != nil {
			logger.Warn("cannot remove processing directory", "job", r.job.ID, "error", err)
		}
	}
	if r.job.Err() == nil {
		r.job.Advance(job.StateDone)
	}
}

func (r *jobRun) outputDirectory() string {
	if r.opts.OutputDirectory != "" {
		return r.opts.OutputDirectory
	}
	return filepath.Dir(r.job.Input)
}

func (r *jobRun) outputPath(ctx context.Context, wavelength int) (string, error) {
	return r.service.allocator.OutputPath(ctx, paths.OutputSpec{
		SourcePath:      r.job.Input,
		Kind:            r.job.Kind,
		Suffix:          r.opts.Suffix,
		OutputDirectory: r.opts.OutputDirectory,
		Wavelength:      wavelength,
		AddTimestamp:    r.opts.AddTimestamp,
		EnsureUnique:    !r.opts.Overwrite,
		MaxAttempts:     r.opts.MaxAttempts,
	})
}

// move relocates a workspace artifact to its final path.
func (s *Service) move(ctx context.Context, source, target string, overwrite bool) error {
	if overwrite {
		if ok, _ := s.fs.Exists(ctx, target); ok {
			if err := s.fs.Delete(ctx, target); err != nil {
				return types.NewIOError("cannot replace %v: %v", target, err)
			}
		}
	}
	if err := s.fs.Move(ctx, source, target); err != nil {
		return types.NewIOError("cannot move %v to %v: %v", source, target, err)
	}
	return nil
}
