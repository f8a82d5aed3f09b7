package config

// loader.go - layered configuration loading.
//
// Precedence order (highest wins):
//   1. CLI flags  (collected by cmd/root.go, passed to Load)
//   2. Environment variables  (FTPC_SECTION_KEY)
//   3. Config file  (YAML, --config)
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// sections are the nested tables of Config; every other key is top
// level and may itself contain underscores (disable_epsv).
var sections = map[string]bool{"server": true, "tunnel": true}

// Loader merges the configuration sources into a Config.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigFile sets the YAML file to read.  An empty path skips it.
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) { l.filePath = path }
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) { l.envPrefix = prefix }
}

// NewLoader creates a loader with the FTPC_ prefix and no file.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: EnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file and environment, applies flags (dotted keys such
// as "server.host"), and unmarshals the result over Defaults.  Keys no
// source mentions keep their default value.
func (l *Loader) Load(flags map[string]any) (*Config, error) {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	if err := l.k.Load(env.ProviderWithValue(l.envPrefix, ".", l.envValue), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if len(flags) > 0 {
		if err := l.k.Load(flagProvider(flags), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Defaults()
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Keys returns every key set by a source, for --verbose diagnostics.
func (l *Loader) Keys() []string { return l.k.Keys() }

// envValue skips empty variables so an exported-but-blank FTPC_* does
// not clear a value from the file.
func (l *Loader) envValue(key, value string) (string, interface{}) {
	if value == "" {
		return "", nil
	}
	return l.envKey(key), value
}

// envKey maps FTPC_SERVER_HOST to server.host and FTPC_DISABLE_EPSV to
// disable_epsv.
func (l *Loader) envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	if sec, rest, ok := strings.Cut(s, "_"); ok && sections[sec] {
		return sec + "." + rest
	}
	return s
}

// flagProvider is a koanf provider over a flat map of dotted keys.
type flagProvider map[string]any

func (f flagProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("config: flag provider does not support ReadBytes")
}

func (f flagProvider) Read() (map[string]any, error) {
	return maps.Unflatten(f, "."), nil
}
