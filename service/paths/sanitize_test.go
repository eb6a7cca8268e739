package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/visimlab/simrecon/model/types"
)

func TestEnsureValidFilenameFor(t *testing.T) {
	testCases := []struct {
		name   string
		goos   string
		input  string
		expect string
	}{
		{
			name:   "windows invalid characters",
			goos:   "windows",
			input:  `a<b>c:d"e|f?g*h.txt`,
			expect: "a_b_c_d_e_f_g_h.txt",
		},
		{
			name:   "windows trailing spaces and dots",
			goos:   "windows",
			input:  "name . ",
			expect: "name",
		},
		{
			name:   "windows path separators",
			goos:   "windows",
			input:  `dir\file/name`,
			expect: "dir_file_name",
		},
		{
			name:   "linux slash replaced",
			goos:   "linux",
			input:  "a/b.dv",
			expect: "a_b.dv",
		},
		{
			name:   "linux keeps colon",
			goos:   "linux",
			input:  "12:30.dv",
			expect: "12:30.dv",
		},
		{
			name:   "linux trailing space",
			goos:   "linux",
			input:  "name ",
			expect: "name",
		},
		{
			name:   "darwin colon and slash",
			goos:   "darwin",
			input:  "a:b/c",
			expect: "a_b_c",
		},
		{
			name:   "clean name untouched",
			goos:   "linux",
			input:  "image_OTF_525.tiff",
			expect: "image_OTF_525.tiff",
		},
	}

	for _, tc := range testCases {
		actual, err := EnsureValidFilenameFor(tc.goos, tc.input)
		if !assert.NoError(t, err, tc.name) {
			continue
		}
		assert.EqualValues(t, tc.expect, actual, tc.name)
	}
}

func TestEnsureValidFilenameForUnknownPlatform(t *testing.T) {
	_, err := EnsureValidFilenameFor("plan9", "name")
	assert.ErrorIs(t, err, types.ErrUnsupportedPlatform)
}
