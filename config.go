package simrecon

import (
	"fmt"
	"strings"

	"github.com/visimlab/simrecon/service/paths"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON, YAML, environment variables, etc. The
// zero-value is not useful on its own; start from DefaultConfig.
type Config struct {
	Engine EngineConfig `json:"engine" yaml:"engine"`
	Output OutputConfig `json:"output" yaml:"output"`
}

// EngineConfig locates the native numerical binaries.
type EngineConfig struct {
	OTFCommand   string            `json:"otfCommand" yaml:"otfCommand"`
	ReconCommand string            `json:"reconCommand" yaml:"reconCommand"`
	Env          map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// OutputConfig controls final artifact naming.
type OutputConfig struct {
	OTFSuffix         string `json:"otfSuffix" yaml:"otfSuffix"`
	ReconSuffix       string `json:"reconSuffix" yaml:"reconSuffix"`
	MaxUniqueAttempts int    `json:"maxUniqueAttempts" yaml:"maxUniqueAttempts"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			OTFCommand:   "makeotf",
			ReconCommand: "cudasirecon",
		},
		Output: OutputConfig{
			OTFSuffix:         ".tiff",
			ReconSuffix:       ".dv",
			MaxUniqueAttempts: paths.DefaultMaxAttempts,
		},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Engine.OTFCommand == "" {
		return fmt.Errorf("engine.otfCommand must not be empty")
	}
	if c.Engine.ReconCommand == "" {
		return fmt.Errorf("engine.reconCommand must not be empty")
	}
	for name, suffix := range map[string]string{
		"output.otfSuffix":   c.Output.OTFSuffix,
		"output.reconSuffix": c.Output.ReconSuffix,
	} {
		if !strings.HasPrefix(suffix, ".") {
			return fmt.Errorf("%s must start with a dot, got %q", name, suffix)
		}
	}
	if c.Output.MaxUniqueAttempts <= 1 {
		return fmt.Errorf("output.maxUniqueAttempts must be > 1")
	}
	return nil
}
