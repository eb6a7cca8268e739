package simrecon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/visimlab/simrecon/model/types"
	"github.com/visimlab/simrecon/runtime/job"
)

// recordingInvoker writes the requested artifact and remembers the requests.
type recordingInvoker struct {
	calls []*types.InvokeRequest
}

func (r *recordingInvoker) Invoke(_ context.Context, request *types.InvokeRequest) error {
	r.calls = append(r.calls, request)
	return os.WriteFile(request.OutputPath, []byte("artifact"), 0o644)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	broken := DefaultConfig()
	broken.Engine.OTFCommand = ""
	assert.Error(t, broken.Validate())

	broken = DefaultConfig()
	broken.Output.ReconSuffix = "dv"
	assert.Error(t, broken.Validate())

	broken = DefaultConfig()
	broken.Output.MaxUniqueAttempts = 1
	assert.Error(t, broken.Validate())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(WithConfig(&Config{}))
	assert.Error(t, err)
}

func TestReconSuffix(t *testing.T) {
	suffix, err := reconSuffix("", ".dv")
	assert.NoError(t, err)
	assert.EqualValues(t, ".dv", suffix)

	suffix, err = reconSuffix("tiff", ".dv")
	assert.NoError(t, err)
	assert.EqualValues(t, ".tiff", suffix)

	_, err = reconSuffix("png", ".dv")
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestConvertPSFsToOTFs(t *testing.T) {
	dir := t.TempDir()
	psf := filepath.Join(dir, "psf.dv")
	assert.NoError(t, os.WriteFile(psf, []byte("raw"), 0o644))

	invoker := &recordingInvoker{}
	service, err := New(WithInvoker(invoker))
	assert.NoError(t, err)
	defer service.Close()

	batch, err := service.ConvertPSFsToOTFs(context.Background(), &OTFRequest{
		PSFPaths:  []string{psf},
		Shape:     []int{256, 256},
		Overrides: map[string]any{"nphases": 3},
	})
	assert.NoError(t, err)
	assert.Len(t, batch.Results, 1)
	assert.EqualValues(t, job.StateDone, batch.Results[0].State)
	assert.EqualValues(t, []string{filepath.Join(dir, "psf_OTF.tiff")}, batch.Results[0].Outputs)

	assert.Len(t, invoker.calls, 1)
	assert.EqualValues(t, types.KindOTF, invoker.calls[0].Kind)
	assert.EqualValues(t, []int{256, 256}, invoker.calls[0].Shape)
	assert.EqualValues(t, 3, invoker.calls[0].Params["nphases"])
}

func TestConvertPSFsToOTFsValidation(t *testing.T) {
	service, err := New(WithInvoker(&recordingInvoker{}))
	assert.NoError(t, err)

	_, err = service.ConvertPSFsToOTFs(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrInvalid)
	_, err = service.ConvertPSFsToOTFs(context.Background(), &OTFRequest{})
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestReconstruct(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "cells.dv")
	otf := filepath.Join(dir, "525_otf.tiff")
	assert.NoError(t, os.WriteFile(data, []byte("raw"), 0o644))
	assert.NoError(t, os.WriteFile(otf, []byte("otf"), 0o644))

	invoker := &recordingInvoker{}
	service, err := New(WithInvoker(invoker))
	assert.NoError(t, err)

	batch, err := service.Reconstruct(context.Background(), &ReconRequest{
		DataPaths:      []string{data},
		OTFPaths:       map[int]string{525: otf},
		OutputFileType: "tiff",
		Overrides:      map[string]any{"wiener": 0.001},
	})
	assert.NoError(t, err)
	assert.Len(t, batch.Results, 1)
	assert.EqualValues(t, job.StateDone, batch.Results[0].State)
	assert.EqualValues(t, []string{filepath.Join(dir, "cells_recon_525.tiff")}, batch.Results[0].Outputs)

	assert.Len(t, invoker.calls, 1)
	assert.EqualValues(t, otf, invoker.calls[0].OTFPath)
	assert.EqualValues(t, 0.001, invoker.calls[0].Params["wiener"])
}

func TestReconstructOne(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "cells.dv")
	otf := filepath.Join(dir, "525_otf.tiff")
	assert.NoError(t, os.WriteFile(data, []byte("raw"), 0o644))
	assert.NoError(t, os.WriteFile(otf, []byte("otf"), 0o644))

	service, err := New(WithInvoker(&recordingInvoker{}))
	assert.NoError(t, err)

	result, err := service.ReconstructOne(context.Background(), data, &ReconRequest{
		OTFPaths: map[int]string{525: otf},
	})
	assert.NoError(t, err)
	assert.EqualValues(t, job.StateDone, result.State)
	assert.EqualValues(t, data, result.Input)
}
