// Command sim-otf converts point-spread-function calibration images into
// optical transfer functions.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/visimlab/simrecon"
	"github.com/visimlab/simrecon/internal/cliutil"
	"github.com/visimlab/simrecon/model/types"
	"github.com/visimlab/simrecon/progress"
	"github.com/visimlab/simrecon/runtime/job"
	"github.com/visimlab/simrecon/service/settings"
)

// Version is the semantic version (set via -ldflags).
var Version = "dev"

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		psfPaths        []string
		configPath      string
		outputDirectory string
		overwrite       bool
		noCleanup       bool
		shape           []int
		centre          []float64
		verbose         bool
	)

	cmd := &cobra.Command{
		Use:          "sim-otf -p PSF [-p PSF ...]",
		Short:        "Convert point-spread-function images into optical transfer functions",
		Version:      Version,
		SilenceUsage: true,
	}
	flags := cmd.Flags()
	flags.StringArrayVarP(&psfPaths, "psf", "p", nil, "PSF file to convert, repeatable")
	flags.StringVarP(&configPath, "config-path", "c", "", "root configuration file")
	flags.StringVarP(&outputDirectory, "output-directory", "o", "", "directory for output files (default: alongside each PSF)")
	flags.BoolVar(&overwrite, "overwrite", false, "replace existing outputs instead of numbering them")
	flags.BoolVar(&noCleanup, "no-cleanup", false, "retain per-file workspaces for inspection")
	flags.IntSliceVar(&shape, "shape", nil, "XY crop shape, two values")
	flags.Float64SliceVar(&centre, "centre", nil, "XY crop centre, two values")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	_ = cmd.MarkFlagRequired("psf")
	collectOverrides := cliutil.AddSchemaFlags(cmd, settings.DefaultOTFSchema, "OTF")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		if len(shape) != 0 && len(shape) != 2 {
			return types.NewInvalidError("--shape takes exactly two values")
		}
		if len(centre) != 0 && len(centre) != 2 {
			return types.NewInvalidError("--centre takes exactly two values")
		}

		service, err := simrecon.New(simrecon.WithTracing("sim-otf", Version, os.Getenv("SIMRECON_TRACE_FILE")))
		if err != nil {
			return err
		}
		defer service.Close()

		ctx, tracker := progress.WithNewTracker(cmd.Context(), "", string(types.KindOTF), nil)
		batch, err := service.ConvertPSFsToOTFs(ctx, &simrecon.OTFRequest{
			PSFPaths:        psfPaths,
			ConfigPath:      configPath,
			OutputDirectory: outputDirectory,
			Overwrite:       overwrite,
			NoCleanup:       noCleanup,
			Shape:           shape,
			Centre:          centre,
			Overrides:       collectOverrides(),
		})
		report(batch, tracker.Snapshot())
		return err
	}
	return cmd
}

func report(batch *job.BatchResult, snapshot progress.Progress) {
	if batch == nil {
		return
	}
	for _, result := range batch.Results {
		if result.Err != nil {
			log.Error("conversion failed", "input", result.Input, "error", result.Err)
			continue
		}
		log.Info("converted", "input", result.Input, "outputs", result.Outputs, "log", result.LogPath)
	}
	log.Info("batch finished", "completed", snapshot.CompletedJobs, "failed", snapshot.FailedJobs)
}
