// Package config loads the tilefetch configuration: process-wide settings for
// the download manager and named sources, which are option profiles for the
// servers fetched from. Configuration is read from a YAML file and settings
// can be overridden through TILEFETCH_* environment variables.
package config

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/tilefetch/pkg/download"
	"github.com/glorpus-work/tilefetch/pkg/errors"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

// EnvPrefix prefixes every environment override, e.g. TILEFETCH_WORKERS.
const EnvPrefix = "tilefetch"

// Config represents the application configuration.
type Config struct {
	Settings Settings           `yaml:"settings"`
	Sources  map[string]*Source `yaml:"sources,omitempty"`
}

// Settings represents process-wide settings.
type Settings struct {
	// Network settings
	Timeout        time.Duration `yaml:"timeout" split_words:"true"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" split_words:"true"`
	UserAgent      string        `yaml:"user_agent,omitempty" split_words:"true"`
	Workers        int           `yaml:"workers" split_words:"true"`
	Cookies        bool          `yaml:"cookies" split_words:"true"`

	// ETag persistence: none, sidecar, xattr or sqlite
	ETagStore string `yaml:"etag_store" envconfig:"ETAG_STORE"`
	ETagDB    string `yaml:"etag_db,omitempty" envconfig:"ETAG_DB"`

	// Output settings
	LogLevel string `yaml:"log_level" split_words:"true"` // debug, info, warn, error
}

// ETag store kinds.
const (
	ETagStoreNone    = "none"
	ETagStoreSidecar = "sidecar"
	ETagStoreXattr   = "xattr"
	ETagStoreSQLite  = "sqlite"
)

// Default configuration values.
const (
	DefaultWorkers = 4

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			Timeout:        download.DefaultTimeout,
			ConnectTimeout: download.DefaultConnectTimeout,
			Workers:        DefaultWorkers,
			ETagStore:      ETagStoreSidecar,
			LogLevel:       "info",
		},
		Sources: map[string]*Source{},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.ApplyEnv(); err != nil {
				return nil, err
			}
			if err := cfg.Validate(); err != nil {
				return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
			}
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// ApplyEnv overrides settings from TILEFETCH_* environment variables. Unset
// variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, &c.Settings); err != nil {
		return errors.Wrap(errors.ErrConfigEnv, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(YAMLIndent)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	for _, name := range c.SourceNames() {
		if err := c.Sources[name].Validate(); err != nil {
			return errors.Wrapf(err, "source %q", name)
		}
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.Timeout < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "timeout cannot be negative: %s", s.Timeout)
	}
	if s.ConnectTimeout < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "connect timeout cannot be negative: %s", s.ConnectTimeout)
	}
	if s.Workers < 1 {
		return errors.Wrapf(errors.ErrConfigValidation, "workers must be at least 1, got %d", s.Workers)
	}
	switch s.ETagStore {
	case ETagStoreNone, ETagStoreSidecar, ETagStoreXattr, ETagStoreSQLite:
	default:
		return errors.Wrapf(errors.ErrUnknownETagStore, "%q", s.ETagStore)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q", s.LogLevel)
	}
	return nil
}

// SourceNames returns the configured source names in order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the named source. The empty name is an empty profile.
func (c *Config) Source(name string) (*Source, error) {
	if name == "" {
		return &Source{}, nil
	}
	src, ok := c.Sources[name]
	if !ok || src == nil {
		return nil, errors.Wrapf(errors.ErrUnknownSource, "%q", name)
	}
	return src, nil
}

// HandleConfig returns the transport settings for download handles.
func (c *Config) HandleConfig() download.HandleConfig {
	return download.HandleConfig{
		Timeout:        c.Settings.Timeout,
		ConnectTimeout: c.Settings.ConnectTimeout,
		UserAgent:      c.Settings.UserAgent,
	}
}

// ETagDBPath returns the SQLite database path, defaulting to the cache dir.
func (c *Config) ETagDBPath() string {
	if c.Settings.ETagDB != "" {
		return c.Settings.ETagDB
	}
	dir, err := fsutil.GetCacheDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), fsutil.AppName)
	}
	return filepath.Join(dir, "etags.db")
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.Timeout == 0 {
		c.Settings.Timeout = defaults.Settings.Timeout
	}
	if c.Settings.ConnectTimeout == 0 {
		c.Settings.ConnectTimeout = defaults.Settings.ConnectTimeout
	}
	if c.Settings.Workers == 0 {
		c.Settings.Workers = defaults.Settings.Workers
	}
	if c.Settings.ETagStore == "" {
		c.Settings.ETagStore = defaults.Settings.ETagStore
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Sources == nil {
		c.Sources = map[string]*Source{}
	}
}
