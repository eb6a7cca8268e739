// Package simrecon orchestrates structured-illumination microscopy
// reconstruction around the native numerical engine binaries.
//
// The service resolves layered per-channel configuration, prepares an
// exclusive workspace per input file, invokes the engine once per channel
// with its output captured to a log, then moves or stitches the artifacts
// to their final, collision-free paths:
//
//	svc, _ := simrecon.New()
//	defer svc.Close()
//	batch, err := svc.Reconstruct(ctx, &simrecon.ReconRequest{
//		DataPaths:  []string{"cells.dv"},
//		ConfigPath: "config.yaml",
//	})
//
// Batches run sequentially by default; ParallelProcess pipelines engine
// invocation against post-processing over two workers, and a caller-owned
// worker pool can be plugged in for full fan-out. For more details see the
// individual sub-packages.
package simrecon
