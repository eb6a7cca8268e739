package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	testCases := []struct {
		name      string
		base      map[string]any
		layer     map[string]any
		applyNull bool
		expect    map[string]any
	}{
		{
			name:   "last layer wins",
			base:   map[string]any{"A": 1, "B": 2},
			layer:  map[string]any{"B": 3},
			expect: map[string]any{"A": 1, "B": 3},
		},
		{
			name:      "null skipped keeps lower layer",
			base:      map[string]any{"A": 1, "B": 2},
			layer:     map[string]any{"B": nil},
			applyNull: false,
			expect:    map[string]any{"A": 1, "B": 2},
		},
		{
			name:      "null applied clears lower layer",
			base:      map[string]any{"A": 1, "B": 2},
			layer:     map[string]any{"B": nil},
			applyNull: true,
			expect:    map[string]any{"A": 1, "B": nil},
		},
		{
			name:   "absent key never touches base",
			base:   map[string]any{"A": 1},
			layer:  map[string]any{},
			expect: map[string]any{"A": 1},
		},
		{
			name:   "nil layer",
			base:   map[string]any{"A": 1},
			layer:  nil,
			expect: map[string]any{"A": 1},
		},
		{
			name:   "nil base",
			base:   nil,
			layer:  map[string]any{"A": 1},
			expect: map[string]any{"A": 1},
		},
	}

	for _, tc := range testCases {
		actual := Merge(tc.base, tc.layer, tc.applyNull)
		assert.EqualValues(t, tc.expect, actual, tc.name)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"A": 1}
	layer := map[string]any{"A": 2}
	out := Merge(base, layer, false)
	out["A"] = 3
	assert.EqualValues(t, 1, base["A"])
	assert.EqualValues(t, 2, layer["A"])
}
