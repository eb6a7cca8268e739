package types

import "sort"

// Schema is a set of valid configuration keys for one engine parameter
// surface. Two independent schemas exist: one for OTF conversion and one for
// reconstruction.
type Schema struct {
	name string
	keys map[string]struct{}
}

// NewSchema builds a schema from its valid key names.
func NewSchema(name string, keys ...string) *Schema {
	s := &Schema{name: name, keys: make(map[string]struct{}, len(keys))}
	for _, key := range keys {
		s.keys[key] = struct{}{}
	}
	return s
}

// Name returns the schema identifier.
func (s *Schema) Name() string { return s.name }

// Valid reports whether key belongs to the schema.
func (s *Schema) Valid(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Keys returns the schema key names in sorted order.
func (s *Schema) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for key := range s.keys {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Filter returns the subset of m whose keys belong to the schema.
func (s *Schema) Filter(m map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range m {
		if s.Valid(key) {
			out[key] = value
		}
	}
	return out
}
