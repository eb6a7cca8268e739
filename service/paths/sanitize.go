package paths

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/visimlab/simrecon/model/types"
)

// filenameRule holds the per-platform filename constraints: a set of
// characters that must be replaced with '_' and a set stripped from the end
// of the name.
type filenameRule struct {
	invalid  string
	trailing string
}

// filenameRules is keyed by runtime.GOOS. A platform missing from this table
// is an explicit error, never a silent fallthrough.
var filenameRules = map[string]filenameRule{
	"windows": {invalid: `<>:"/\|?*`, trailing: " ."},
	"linux":   {invalid: "/", trailing: " "},
	"darwin":  {invalid: "/:", trailing: " "},
}

// EnsureValidFilename sanitizes filename according to the current platform's
// rules. The directory part of a path must never be passed here.
func EnsureValidFilename(filename string) (string, error) {
	return EnsureValidFilenameFor(runtime.GOOS, filename)
}

// EnsureValidFilenameFor applies the rule set registered for goos. Exposed
// with an explicit platform so every rule set can be exercised regardless of
// the host OS.
func EnsureValidFilenameFor(goos, filename string) (string, error) {
	rule, ok := filenameRules[goos]
	if !ok {
		return "", fmt.Errorf("%w: no filename rules for %q", types.ErrUnsupportedPlatform, goos)
	}
	sanitized := strings.TrimRight(filename, rule.trailing)
	sanitized = strings.Map(func(r rune) rune {
		if strings.ContainsRune(rule.invalid, r) {
			return '_'
		}
		return r
	}, sanitized)
	if sanitized != filename {
		logger.Debug("removed invalid filename characters", "filename", filename, "sanitized", sanitized)
	}
	return sanitized, nil
}
