package types

import "context"

// OutputKind identifies what an engine invocation produces.
type OutputKind string

const (
	// KindOTF converts a point-spread-function calibration image into an
	// optical transfer function.
	KindOTF OutputKind = "otf"
	// KindRecon reconstructs a structured-illumination dataset.
	KindRecon OutputKind = "recon"
)

// Stub returns the fixed filename token for the kind.
func (k OutputKind) Stub() (string, bool) {
	switch k {
	case KindOTF:
		return "OTF", true
	case KindRecon:
		return "recon", true
	}
	return "", false
}

// InvokeRequest carries the resolved parameters for one engine invocation.
// The engine writes its output file as a side effect and its diagnostics to
// the OS-level standard streams.
type InvokeRequest struct {
	Kind       OutputKind     `json:"kind"`
	InputPath  string         `json:"inputPath"`
	OutputPath string         `json:"outputPath"`
	OTFPath    string         `json:"otfPath,omitempty"` // reconstruction only
	Wavelength int            `json:"wavelength,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
	Workdir    string         `json:"workdir,omitempty"`
	Shape      []int          `json:"shape,omitempty"`  // XY crop shape, OTF only
	Centre     []float64      `json:"centre,omitempty"` // XY crop centre, OTF only
	// LogPath, when set, asks the implementation to persist diagnostics to
	// this file instead of the process-level streams. Used when several jobs
	// run concurrently and the process-wide redirect point cannot be shared.
	LogPath string `json:"logPath,omitempty"`
}

// Invoker runs the native numerical engine. Implementations must not apply
// timeouts or retries; both belong to the caller of the engine binary.
type Invoker interface {
	Invoke(ctx context.Context, request *InvokeRequest) error
}

// Stitcher combines per-channel output artifacts into one multi-channel
// artifact. Image codec concerns live entirely behind this interface.
type Stitcher interface {
	Stitch(ctx context.Context, channelPaths []string, outputPath string) error
}

// ChannelLister reports the emission wavelengths present in a dataset. When
// no lister is supplied the orchestrator falls back to the configured
// channels.
type ChannelLister interface {
	Channels(ctx context.Context, dataPath string) ([]int, error)
}

// Handle resolves once a submitted task has finished.
type Handle interface {
	Wait(ctx context.Context) error
}

// Submitter is a caller-owned worker pool. The orchestrator only submits
// tasks and awaits their handles; worker count, recycling and lifecycle stay
// with the caller. The native engine is known to misbehave under heavy
// worker reuse, so recycling workers after each task is recommended.
type Submitter interface {
	Submit(ctx context.Context, task func() error) (Handle, error)
}
