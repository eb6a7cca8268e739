// Package settings resolves layered configuration (file defaults,
// per-channel files, explicit overrides) into immutable per-channel engine
// parameters shared read-only across concurrent jobs.
package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/visimlab/simrecon/model/types"
)

var logger = log.WithPrefix("settings")

// rootConfig mirrors the top-level YAML config: a defaults source plus
// per-wavelength config and OTF references. Relative paths are resolved
// against the root config's directory.
type rootConfig struct {
	Defaults string         `yaml:"defaults"`
	Channels map[int]string `yaml:"channels"`
	OTFs     map[int]string `yaml:"otfs"`
}

// ChannelConfig holds the resolved parameters of one wavelength. It is
// immutable once resolved.
type ChannelConfig struct {
	Wavelength int
	OTF        map[string]any
	Recon      map[string]any
	// OTFPath points at a pre-built OTF used for reconstruction of this
	// channel, if one is configured or overridden.
	OTFPath string
}

// Overrides is a programmatic per-channel override layer. It is applied
// with applyNull=true: a nil value authoritatively clears the setting.
type Overrides struct {
	OTF   map[string]any
	Recon map[string]any
}

// Manager holds resolved defaults and channel configurations.
type Manager struct {
	defaultsPath string
	hasRoot      bool
	defaultOTF   map[string]any
	defaultRecon map[string]any
	channels     map[int]*ChannelConfig
}

type loadOptions struct {
	fs          afs.Service
	otfSchema   *types.Schema
	reconSchema *types.Schema
	otfPaths    map[int]string
	overrides   map[int]Overrides
}

// Option customises configuration loading.
type Option func(*loadOptions)

// WithFS overrides the file storage service used to read config sources.
func WithFS(fs afs.Service) Option {
	return func(o *loadOptions) { o.fs = fs }
}

// WithSchemas swaps the valid-key schemas used to split and validate
// configuration layers.
func WithSchemas(otf, recon *types.Schema) Option {
	return func(o *loadOptions) {
		o.otfSchema = otf
		o.reconSchema = recon
	}
}

// WithOTFPaths supplies per-wavelength OTF files that take precedence over
// OTFs referenced by the root config.
func WithOTFPaths(paths map[int]string) Option {
	return func(o *loadOptions) { o.otfPaths = paths }
}

// WithOverrides supplies programmatic per-channel parameter overrides,
// applied on top of all file layers with applyNull=true.
func WithOverrides(overrides map[int]Overrides) Option {
	return func(o *loadOptions) { o.overrides = overrides }
}

// Load resolves configuration. With an empty configPath every channel
// resolves to built-in empty defaults plus any explicit override; this path
// never fails. With a root config, its defaults source is read once, split
// into the OTF and reconstruction schemas, and per-channel configs are
// merged on top.
func Load(ctx context.Context, configPath string, opts ...Option) (*Manager, error) {
	o := &loadOptions{otfSchema: DefaultOTFSchema, reconSchema: DefaultReconSchema}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = afs.New()
	}

	m := &Manager{
		defaultOTF:   map[string]any{},
		defaultRecon: map[string]any{},
		channels:     map[int]*ChannelConfig{},
	}

	if configPath == "" {
		logger.Debug("no root config given, using built-in empty defaults")
		m.applyOverrides(o)
		return m, nil
	}
	logger.Info("loading configurations", "config", configPath)
	m.hasRoot = true

	root, err := readRoot(ctx, o.fs, configPath)
	if err != nil {
		return nil, err
	}
	if root.Defaults == "" {
		return nil, types.NewInvalidError("root config %v does not reference a defaults source", configPath)
	}

	m.defaultsPath = resolveRelative(configPath, root.Defaults)
	raw, err := readConfig(ctx, o.fs, m.defaultsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: defaults source %v: %v", types.ErrConfiguration, m.defaultsPath, err)
	}
	if m.defaultOTF, m.defaultRecon, err = splitBySchema(raw, o.otfSchema, o.reconSchema); err != nil {
		return nil, fmt.Errorf("defaults source %v: %w", m.defaultsPath, err)
	}

	for wavelength, ref := range root.Channels {
		channelPath := resolveRelative(configPath, ref)
		raw, err := readConfig(ctx, o.fs, channelPath)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d config %v: %v", types.ErrConfiguration, wavelength, channelPath, err)
		}
		otf, recon, err := splitBySchema(raw, o.otfSchema, o.reconSchema)
		if err != nil {
			return nil, fmt.Errorf("channel %d config %v: %w", wavelength, channelPath, err)
		}
		m.channels[wavelength] = &ChannelConfig{
			Wavelength: wavelength,
			OTF:        Merge(m.defaultOTF, otf, true),
			Recon:      Merge(m.defaultRecon, recon, true),
		}
	}
	for wavelength, ref := range root.OTFs {
		channel := m.ensureChannel(wavelength)
		channel.OTFPath = resolveRelative(configPath, ref)
	}

	m.applyOverrides(o)
	return m, nil
}

func (m *Manager) applyOverrides(o *loadOptions) {
	for wavelength, overrides := range o.overrides {
		channel := m.ensureChannel(wavelength)
		channel.OTF = Merge(channel.OTF, overrides.OTF, true)
		channel.Recon = Merge(channel.Recon, overrides.Recon, true)
	}
	for wavelength, path := range o.otfPaths {
		channel := m.ensureChannel(wavelength)
		channel.OTFPath = path
	}
}

func (m *Manager) ensureChannel(wavelength int) *ChannelConfig {
	channel, ok := m.channels[wavelength]
	if !ok {
		channel = &ChannelConfig{
			Wavelength: wavelength,
			OTF:        Merge(m.defaultOTF, nil, true),
			Recon:      Merge(m.defaultRecon, nil, true),
		}
		m.channels[wavelength] = channel
	}
	return channel
}

// Channel returns the resolved configuration of one wavelength.
func (m *Manager) Channel(wavelength int) (*ChannelConfig, bool) {
	channel, ok := m.channels[wavelength]
	return channel, ok
}

// Resolve returns the configuration to use for one wavelength. Without a
// root config every wavelength resolves to the built-in defaults; with one,
// wavelengths the config does not cover are unresolvable.
func (m *Manager) Resolve(wavelength int) (*ChannelConfig, bool) {
	if channel, ok := m.channels[wavelength]; ok {
		return channel, true
	}
	if m.hasRoot {
		return nil, false
	}
	return &ChannelConfig{
		Wavelength: wavelength,
		OTF:        Merge(m.defaultOTF, nil, true),
		Recon:      Merge(m.defaultRecon, nil, true),
	}, true
}

// Channels returns all resolved channels ordered by wavelength.
func (m *Manager) Channels() []*ChannelConfig {
	out := make([]*ChannelConfig, 0, len(m.channels))
	for _, channel := range m.channels {
		out = append(out, channel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wavelength < out[j].Wavelength })
	return out
}

// Wavelengths returns the configured wavelengths in ascending order.
func (m *Manager) Wavelengths() []int {
	out := make([]int, 0, len(m.channels))
	for wavelength := range m.channels {
		out = append(out, wavelength)
	}
	sort.Ints(out)
	return out
}

// DefaultsPath returns the defaults source referenced by the root config,
// empty when no root config was given.
func (m *Manager) DefaultsPath() string { return m.defaultsPath }

// readRoot loads and parses the top-level config.
func readRoot(ctx context.Context, fs afs.Service, path string) (*rootConfig, error) {
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, types.NewNotFoundError("cannot read root config %v: %v", path, err)
	}
	root := &rootConfig{}
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("%w: root config %v: %v", types.ErrConfiguration, path, err)
	}
	return root, nil
}

// readConfig produces a flat key/value map from a config file reference. A
// key present with no value decodes to nil, which the merge layer treats
// differently from an absent key.
func readConfig(ctx context.Context, fs afs.Service, path string) (map[string]any, error) {
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// splitBySchema partitions raw keys into the OTF and reconstruction key
// sets. A key matching neither schema is a validation failure.
func splitBySchema(raw map[string]any, otfSchema, reconSchema *types.Schema) (map[string]any, map[string]any, error) {
	otf, recon := map[string]any{}, map[string]any{}
	for key, value := range raw {
		matched := false
		if otfSchema.Valid(key) {
			otf[key] = value
			matched = true
		}
		if reconSchema.Valid(key) {
			recon[key] = value
			matched = true
		}
		if !matched {
			return nil, nil, types.NewInvalidError("key %q matches neither the %v nor the %v schema", key, otfSchema.Name(), reconSchema.Name())
		}
	}
	return otf, recon, nil
}

func resolveRelative(configPath, ref string) string {
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(configPath), ref)
}
