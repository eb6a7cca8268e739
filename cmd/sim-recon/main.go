// Command sim-recon reconstructs structured-illumination microscopy
// datasets.
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
	"github.com/visimlab/simrecon/service/pool"
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
		dataPaths           []string
		configPath          string
		outputDirectory     string
		processingDirectory string
		otfRefs             []string
		fileType            string
		overwrite           bool
		noCleanup           bool
		noStitch            bool
		allowMissing        bool
		addTimestamp        bool
		parallelProcess     bool
		jobs                int
		verbose             bool
	)

	cmd := &cobra.Command{
		Use:          "sim-recon -d DATA [-d DATA ...]",
		Short:        "Reconstruct structured-illumination microscopy datasets",
		Version:      Version,
		SilenceUsage: true,
	}
	flags := cmd.Flags()
	flags.StringArrayVarP(&dataPaths, "data", "d", nil, "dataset to reconstruct, repeatable")
	flags.StringVarP(&configPath, "config-path", "c", "", "root configuration file")
	flags.StringVarP(&outputDirectory, "output-directory", "o", "", "directory for output files (default: alongside each dataset)")
	flags.StringVar(&processingDirectory, "processing-directory", "", "directory hosting per-dataset workspaces")
	flags.StringArrayVar(&otfRefs, "otf", nil, "per-channel OTF as wavelength:path, repeatable")
	flags.StringVar(&fileType, "type", "", "output file type: dv or tiff")
	flags.BoolVar(&overwrite, "overwrite", false, "replace existing outputs instead of numbering them")
	flags.BoolVar(&noCleanup, "no-cleanup", false, "retain per-dataset workspaces for inspection")
	flags.BoolVar(&noStitch, "no-stitch", false, "keep per-channel outputs separate")
	flags.BoolVar(&allowMissing, "allow-missing-channels", false, "skip channels without usable configuration")
	flags.BoolVar(&addTimestamp, "timestamp", false, "append each dataset's modification time to output names")
	flags.BoolVar(&parallelProcess, "parallel-process", false, "pipeline invocation and post-processing over two workers")
	flags.IntVarP(&jobs, "jobs", "j", 0, "run datasets on a pool of N workers")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	_ = cmd.MarkFlagRequired("data")
	collectOverrides := cliutil.AddSchemaFlags(cmd, settings.DefaultReconSchema, "reconstruction")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		otfPaths, err := cliutil.ParseOTFPaths(otfRefs)
		if err != nil {
			return err
		}

		service, err := simrecon.New(simrecon.WithTracing("sim-recon", Version, os.Getenv("SIMRECON_TRACE_FILE")))
		if err != nil {
			return err
		}
		defer service.Close()

		var submitter types.Submitter
		if jobs > 1 {
			workers := pool.New(pool.WithWorkers(jobs))
			defer workers.Shutdown()
			submitter = workers
		}

		ctx, tracker := progress.WithNewTracker(cmd.Context(), "", string(types.KindRecon), nil)
		batch, err := service.Reconstruct(ctx, &simrecon.ReconRequest{
			DataPaths:           dataPaths,
			ConfigPath:          configPath,
			OutputDirectory:     outputDirectory,
			ProcessingDirectory: processingDirectory,
			OTFPaths:            otfPaths,
			OutputFileType:      fileType,
			Overwrite:           overwrite,
			NoCleanup:           noCleanup,
			NoStitch:            noStitch,
			AllowPartial:        allowMissing,
			AddTimestamp:        addTimestamp,
			ParallelProcess:     parallelProcess,
			Pool:                submitter,
			Overrides:           collectOverrides(),
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
			log.Error("reconstruction failed", "input", result.Input, "error", result.Err)
			continue
		}
		if len(result.Skipped) > 0 {
			log.Warn("reconstructed with skipped channels", "input", result.Input, "skipped", result.Skipped)
		}
		log.Info("reconstructed", "input", result.Input, "outputs", result.Outputs, "log", result.LogPath)
	}
	log.Info("batch finished", "completed", snapshot.CompletedJobs, "failed", snapshot.FailedJobs)
}
