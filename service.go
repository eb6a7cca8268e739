package simrecon

import (
	"context"
	"io"

	"github.com/viant/afs"

	"github.com/visimlab/simrecon/model/types"
	"github.com/visimlab/simrecon/runtime/job"
	"github.com/visimlab/simrecon/runtime/orchestrator"
	"github.com/visimlab/simrecon/service/engine"
	"github.com/visimlab/simrecon/service/paths"
	"github.com/visimlab/simrecon/service/settings"
)

// Service is the high-level façade: it resolves configuration, builds the
// orchestrator and exposes the batch operations.
type Service struct {
	config       *Config
	fs           afs.Service
	allocator    *paths.Allocator
	invoker      types.Invoker
	stitcher     types.Stitcher
	lister       types.ChannelLister
	orchestrator *orchestrator.Service
	ownsInvoker  bool
}

// New creates the service. Without options it shells out to the engine
// binaries named by DefaultConfig.
func New(options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.allocator == nil {
		s.allocator = paths.New(paths.WithFS(s.fs))
	}
	if s.invoker == nil {
		s.invoker = engine.New(
			engine.WithOTFCommand(s.config.Engine.OTFCommand),
			engine.WithReconCommand(s.config.Engine.ReconCommand),
			engine.WithEnv(s.config.Engine.Env))
		s.ownsInvoker = true
	}
	var err error
	s.orchestrator, err = orchestrator.New(s.invoker,
		orchestrator.WithFS(s.fs),
		orchestrator.WithAllocator(s.allocator),
		orchestrator.WithStitcher(s.stitcher),
		orchestrator.WithChannelLister(s.lister))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OTFRequest describes one PSF-to-OTF conversion batch.
type OTFRequest struct {
	// PSFPaths are the point-spread-function calibration images to convert.
	PSFPaths []string
	// ConfigPath references the root configuration; empty means built-in
	// defaults.
	ConfigPath string
	// OutputDirectory overrides each PSF's directory as the destination.
	OutputDirectory string
	// Overwrite replaces existing outputs instead of probing unique names.
	Overwrite bool
	// NoCleanup retains per-job workspaces for inspection.
	NoCleanup bool
	// Shape and Centre crop the PSF in XY before conversion.
	Shape  []int
	Centre []float64
	// Overrides is a run-level OTF parameter layer; nil values are skipped.
	Overrides map[string]any
	// ChannelOverrides are per-channel layers applied on top of the file
	// configuration; nil values clear the setting.
	ChannelOverrides map[int]settings.Overrides
}

// ConvertPSFsToOTFs converts each PSF into an optical transfer function.
// Per-file failures do not abort the batch; the aggregated error is
// returned alongside the full results.
func (s *Service) ConvertPSFsToOTFs(ctx context.Context, request *OTFRequest) (*job.BatchResult, error) {
	if request == nil || len(request.PSFPaths) == 0 {
		return nil, types.NewInvalidError("no PSF files given")
	}
	manager, err := settings.Load(ctx, request.ConfigPath,
		settings.WithFS(s.fs),
		settings.WithOverrides(request.ChannelOverrides))
	if err != nil {
		return nil, err
	}
	opts := orchestrator.DefaultOptions()
	opts.Suffix = s.config.Output.OTFSuffix
	opts.MaxAttempts = s.config.Output.MaxUniqueAttempts
	opts.OutputDirectory = request.OutputDirectory
	opts.Overwrite = request.Overwrite
	opts.Cleanup = !request.NoCleanup
	// OTFs are single-channel artifacts, one per PSF.
	opts.StitchChannels = false
	opts.Shape = request.Shape
	opts.Centre = request.Centre
	opts.OTFOverrides = request.Overrides

	batch, err := s.orchestrator.RunBatch(ctx, manager, request.PSFPaths, types.KindOTF, opts)
	if err != nil {
		return nil, err
	}
	return batch, batch.Err()
}

// ReconRequest describes one reconstruction batch.
type ReconRequest struct {
	// DataPaths are the raw structured-illumination datasets.
	DataPaths []string
	// ConfigPath references the root configuration; empty means built-in
	// defaults.
	ConfigPath string
	// OutputDirectory overrides each dataset's directory as the destination.
	OutputDirectory string
	// ProcessingDirectory hosts per-job workspaces when set.
	ProcessingDirectory string
	// OTFPaths supplies per-wavelength OTF files, taking precedence over
	// OTFs referenced by the configuration.
	OTFPaths map[int]string
	// OutputFileType selects the artifact format: "dv" or "tiff". Empty
	// falls back to the configured suffix.
	OutputFileType string
	// Overwrite replaces existing outputs instead of probing unique names.
	Overwrite bool
	// NoCleanup retains per-job workspaces for inspection.
	NoCleanup bool
	// NoStitch keeps per-channel outputs separate.
	NoStitch bool
	// AllowPartial skips channels without usable configuration instead of
	// failing the dataset.
	AllowPartial bool
	// AddTimestamp appends each dataset's modification time to output names.
	AddTimestamp bool
	// ParallelProcess pipelines invocation and post-processing of different
	// datasets over two workers. Ignored when Pool is set.
	ParallelProcess bool
	// Pool, when set, runs whole jobs on a caller-owned worker pool.
	Pool types.Submitter
	// Overrides is a run-level reconstruction parameter layer; nil values
	// are skipped.
	Overrides map[string]any
	// ChannelOverrides are per-channel layers applied on top of the file
	// configuration; nil values clear the setting.
	ChannelOverrides map[int]settings.Overrides
}

// Reconstruct reconstructs each dataset. Per-dataset failures do not abort
// the batch; the aggregated error is returned alongside the full results.
func (s *Service) Reconstruct(ctx context.Context, request *ReconRequest) (*job.BatchResult, error) {
	if request == nil || len(request.DataPaths) == 0 {
		return nil, types.NewInvalidError("no data files given")
	}
	suffix, err := reconSuffix(request.OutputFileType, s.config.Output.ReconSuffix)
	if err != nil {
		return nil, err
	}
	manager, err := settings.Load(ctx, request.ConfigPath,
		settings.WithFS(s.fs),
		settings.WithOTFPaths(request.OTFPaths),
		settings.WithOverrides(request.ChannelOverrides))
	if err != nil {
		return nil, err
	}
	opts := orchestrator.DefaultOptions()
	opts.Suffix = suffix
	opts.MaxAttempts = s.config.Output.MaxUniqueAttempts
	opts.OutputDirectory = request.OutputDirectory
	opts.ProcessingDirectory = request.ProcessingDirectory
	opts.Overwrite = request.Overwrite
	opts.Cleanup = !request.NoCleanup
	opts.StitchChannels = !request.NoStitch
	opts.AllowPartial = request.AllowPartial
	opts.AddTimestamp = request.AddTimestamp
	opts.ParallelProcess = request.ParallelProcess
	opts.Pool = request.Pool
	opts.ReconOverrides = request.Overrides

	batch, err := s.orchestrator.RunBatch(ctx, manager, request.DataPaths, types.KindRecon, opts)
	if err != nil {
		return nil, err
	}
	return batch, batch.Err()
}

// ReconstructOne reconstructs a single dataset with the request's settings,
// ignoring the request's own DataPaths.
func (s *Service) ReconstructOne(ctx context.Context, dataPath string, request *ReconRequest) (*job.Result, error) {
	if request == nil {
		request = &ReconRequest{}
	}
	single := *request
	single.DataPaths = []string{dataPath}
	batch, err := s.Reconstruct(ctx, &single)
	if batch == nil || len(batch.Results) == 0 {
		return nil, err
	}
	return batch.Results[0], err
}

// Orchestrator exposes the underlying scheduler for advanced callers.
func (s *Service) Orchestrator() *orchestrator.Service {
	return s.orchestrator
}

// Close releases resources of an invoker the service created itself.
// Caller-supplied invokers stay open; their lifecycle is the caller's.
func (s *Service) Close() error {
	if !s.ownsInvoker {
		return nil
	}
	if closer, ok := s.invoker.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func reconSuffix(fileType, fallback string) (string, error) {
	switch fileType {
	case "":
		return fallback, nil
	case "dv":
		return ".dv", nil
	case "tiff":
		return ".tiff", nil
	}
	return "", types.NewInvalidError("unknown output file type %q, expected dv or tiff", fileType)
}
