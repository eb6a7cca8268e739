// Package cliutil holds flag helpers shared by the command line tools.
package cliutil

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/visimlab/simrecon/model/types"
)

// AddSchemaFlags registers one string flag per schema key. The returned
// collector gathers the flags the user actually set, decoded as YAML
// scalars: --wiener=0.001 becomes a float, --dampenOrder0=true a bool and
// --forcemodamp=null an explicit null, which run-level merging skips.
func AddSchemaFlags(cmd *cobra.Command, schema *types.Schema, group string) func() map[string]any {
	keys := schema.Keys()
	for _, key := range keys {
		cmd.Flags().String(key, "", group+" parameter "+key)
	}
	return func() map[string]any {
		overrides := map[string]any{}
		for _, key := range keys {
			flag := cmd.Flags().Lookup(key)
			if flag == nil || !flag.Changed {
				continue
			}
			overrides[key] = ParseScalar(flag.Value.String())
		}
		if len(overrides) == 0 {
			return nil
		}
		return overrides
	}
}

// ParseScalar decodes a raw flag value as a YAML scalar. Values that do not
// decode stay strings.
func ParseScalar(raw string) any {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

// ParseOTFPaths turns repeated "wavelength:path" arguments into a
// per-wavelength map.
func ParseOTFPaths(pairs []string) (map[int]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(pairs))
	for _, pair := range pairs {
		wavelength, path, ok := strings.Cut(pair, ":")
		if !ok || path == "" {
			return nil, types.NewInvalidError("invalid OTF reference %q, expected wavelength:path", pair)
		}
		value, err := strconv.Atoi(wavelength)
		if err != nil {
			return nil, types.NewInvalidError("invalid OTF wavelength in %q: %v", pair, err)
		}
		out[value] = path
	}
	return out, nil
}
