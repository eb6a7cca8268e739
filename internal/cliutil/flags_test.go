package cliutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/visimlab/simrecon/model/types"
)

func TestParseScalar(t *testing.T) {
	testCases := []struct {
		raw    string
		expect any
	}{
		{"0.001", 0.001},
		{"5", 5},
		{"true", true},
		{"null", nil},
		{"hello", "hello"},
		{"1,2", "1,2"},
	}
	for _, tc := range testCases {
		assert.EqualValues(t, tc.expect, ParseScalar(tc.raw), tc.raw)
	}
}

func TestAddSchemaFlags(t *testing.T) {
	schema := types.NewSchema("test", "wiener", "background", "otfRA")
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	collect := AddSchemaFlags(cmd, schema, "test")

	cmd.SetArgs([]string{"--wiener=0.001", "--otfRA=null"})
	assert.NoError(t, cmd.Execute())

	overrides := collect()
	assert.EqualValues(t, map[string]any{"wiener": 0.001, "otfRA": nil}, overrides)
	// Flags the user never set stay absent rather than null.
	_, present := overrides["background"]
	assert.False(t, present)
}

func TestAddSchemaFlagsNoneSet(t *testing.T) {
	schema := types.NewSchema("test", "wiener")
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	collect := AddSchemaFlags(cmd, schema, "test")
	cmd.SetArgs(nil)
	assert.NoError(t, cmd.Execute())
	assert.Nil(t, collect())
}

func TestParseOTFPaths(t *testing.T) {
	paths, err := ParseOTFPaths([]string{"525:/otfs/525.tiff", "642:/otfs/642.tiff"})
	assert.NoError(t, err)
	assert.EqualValues(t, map[int]string{525: "/otfs/525.tiff", 642: "/otfs/642.tiff"}, paths)

	paths, err = ParseOTFPaths(nil)
	assert.NoError(t, err)
	assert.Nil(t, paths)

	for _, invalid := range []string{"525", "x:/otf.tiff", "525:"} {
		_, err = ParseOTFPaths([]string{invalid})
		assert.ErrorIs(t, err, types.ErrInvalid, invalid)
	}
}
