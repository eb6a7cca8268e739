package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier as string. It is a
// variable so tests can stub it for deterministic names.
var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// Short returns the first 8 characters of a fresh identifier, used where a
// full UUID would make filenames unwieldy (job identities, workspace names).
func Short() string {
	id := New()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
