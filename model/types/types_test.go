package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorConstructors(t *testing.T) {
	testCases := []struct {
		err      error
		sentinel error
	}{
		{NewNotFoundError("file %v", "a.dv"), ErrNotFound},
		{NewAlreadyExistsError("path %v", "a.dv"), ErrAlreadyExists},
		{NewInvalidError("key %q", "bogus"), ErrInvalid},
		{NewIOError("disk full"), ErrIO},
	}
	for _, tc := range testCases {
		assert.ErrorIs(t, tc.err, tc.sentinel)
		assert.Contains(t, tc.err.Error(), tc.sentinel.Error())
	}
}

func TestExitError(t *testing.T) {
	err := fmt.Errorf("channel 525: %w", &ExitError{Command: "cudasirecon", Code: 139})
	code, ok := ExitCode(err)
	assert.True(t, ok)
	assert.EqualValues(t, 139, code)
	assert.Contains(t, err.Error(), "exit status 139")

	_, ok = ExitCode(errors.New("plain"))
	assert.False(t, ok)
}

func TestOutputKindStub(t *testing.T) {
	stub, ok := KindOTF.Stub()
	assert.True(t, ok)
	assert.EqualValues(t, "OTF", stub)

	stub, ok = KindRecon.Stub()
	assert.True(t, ok)
	assert.EqualValues(t, "recon", stub)

	_, ok = OutputKind("psf").Stub()
	assert.False(t, ok)
}

func TestSchema(t *testing.T) {
	schema := NewSchema("test", "b", "a", "c")
	assert.EqualValues(t, "test", schema.Name())
	assert.True(t, schema.Valid("a"))
	assert.False(t, schema.Valid("z"))
	assert.EqualValues(t, []string{"a", "b", "c"}, schema.Keys())

	filtered := schema.Filter(map[string]any{"a": 1, "z": 2})
	assert.EqualValues(t, map[string]any{"a": 1}, filtered)
}
