package settings

// Merge overlays layer onto base key-wise; the last layer wins. The result
// is a fresh map, neither input is mutated.
//
// applyNull is deliberately an explicit, named parameter rather than
// inferred behaviour: a present key with a nil value either overrides the
// lower layer (an authoritative clear, applyNull=true, used for
// programmatic override maps) or is skipped so the lower layer survives
// (applyNull=false, used for CLI-sourced layers). Absent keys never touch
// the lower layer in either mode.
func Merge(base, layer map[string]any, applyNull bool) map[string]any {
	out := make(map[string]any, len(base)+len(layer))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range layer {
		if value == nil && !applyNull {
			continue
		}
		out[key] = value
	}
	return out
}
