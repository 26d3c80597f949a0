package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultEnvPrefix is the environment variable prefix.
	DefaultEnvPrefix = "AOX_"
	// EnvSectionSeparator separates nested keys in variable names, so
	// AOX_STORAGE__BADGER__GC_INTERVAL maps to storage.badger.gc_interval.
	EnvSectionSeparator = "__"
)

// Loader loads configuration from multiple sources.
type Loader struct {
	k            *koanf.Koanf
	envPrefix    string
	filePath     string
	fileOptional bool
	flags        map[string]any
	loaded       bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file path. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
		l.fileOptional = false
	}
}

// WithOptionalConfigFile sets the YAML file path; a missing file is skipped.
func WithOptionalConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
		l.fileOptional = true
	}
}

// WithFlags sets dotted keys that override every other source. Empty
// strings and nil values are ignored, so unset flags can be passed as is.
func WithFlags(flags map[string]any) Option {
	return func(l *Loader) {
		l.flags = flags
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads file, environment and flags in that order and unmarshals
// the result into target. Keys absent from every source keep the value
// target already holds.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		err := l.LoadFile(l.filePath)
		if err != nil && !(l.fileOptional && errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("load config file: %w", err)
		}
	}
	if err := l.LoadEnv(); err != nil {
		return err
	}
	if len(l.flags) > 0 {
		if err := l.LoadMap(l.flags); err != nil {
			return err
		}
	}
	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	l.loaded = true
	return nil
}

// LoadFile loads a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	return nil
}

// EnvKey maps an environment variable name to a dotted config key, or ""
// when the variable does not carry the prefix.
func EnvKey(prefix, name string) string {
	if !strings.HasPrefix(name, prefix) {
		return ""
	}
	s := strings.ToLower(strings.TrimPrefix(name, prefix))
	return strings.ReplaceAll(s, EnvSectionSeparator, ".")
}

// LoadEnv loads prefixed environment variables.
func (l *Loader) LoadEnv() error {
	provider := env.Provider(l.envPrefix, ".", func(s string) string {
		return EnvKey(l.envPrefix, s)
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// LoadMap loads dotted keys from a map.
func (l *Loader) LoadMap(data map[string]any) error {
	clean := make(map[string]any, len(data))
	for k, v := range data {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		clean[k] = v
	}
	if err := l.k.Load(mapProvider(clean), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal decodes the merged configuration into target using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// GetString returns a string value by dotted key.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetBool returns a bool value by dotted key.
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// IsLoaded reports whether Load completed.
func (l *Loader) IsLoaded() bool {
	return l.loaded
}

// All returns the merged configuration as a flat map.
func (l *Loader) All() map[string]any {
	return l.k.All()
}
