// Package config loads the xbrltree YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/xbrltree/core/labelcache"
	"github.com/FocuswithJustin/xbrltree/internal/logging"
)

// DefaultLabelRole is the XBRL 2.1 standard label role.
const DefaultLabelRole = "http://www.xbrl.org/2003/role/label"

// Config represents the application configuration
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Source SourceConfig `yaml:"source"`
	Cache  CacheConfig  `yaml:"cache"`
	Labels LabelsConfig `yaml:"labels"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// SourceConfig controls where documents are read from.
type SourceConfig struct {
	MirrorDir         string        `yaml:"mirror_dir,omitempty"` // local copy of remote taxonomies
	AllowNetwork      bool          `yaml:"allow_network"`
	Timeout           time.Duration `yaml:"timeout"`
	DocumentCacheSize int           `yaml:"document_cache_size"`
}

// CacheConfig selects the label cache backend.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // file, sqlite, none
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LabelsConfig holds label lookup settings.
type LabelsConfig struct {
	DefaultRole string `yaml:"default_role"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Source: SourceConfig{
			AllowNetwork:      true,
			Timeout:           30 * time.Second,
			DocumentCacheSize: 256,
		},
		Cache: CacheConfig{
			Backend:    labelcache.BackendFile,
			Dir:        "./labfile",
			SQLitePath: "./labfile/labels.db",
		},
		Labels: LabelsConfig{DefaultRole: DefaultLabelRole},
	}
}

// Load loads configuration from the specified file. A missing file yields
// the defaults; keys absent from the file keep their default values.
func Load(configPath string) (*Config, error) {
	config := Default()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Labels.DefaultRole == "" {
		config.Labels.DefaultRole = DefaultLabelRole
	}
	if config.Cache.Backend == "" {
		config.Cache.Backend = labelcache.BackendFile
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("source.timeout must not be negative")
	}
	if c.Source.DocumentCacheSize < 0 {
		return fmt.Errorf("source.document_cache_size must not be negative")
	}
	switch c.Cache.Backend {
	case labelcache.BackendFile:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the file backend")
		}
	case labelcache.BackendSQLite:
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path is required for the sqlite backend")
		}
	case labelcache.BackendNone:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	return nil
}

// CacheOptions converts the cache section for labelcache.Open.
func (c *Config) CacheOptions() labelcache.Options {
	return labelcache.Options{
		Backend:    c.Cache.Backend,
		Dir:        c.Cache.Dir,
		SQLitePath: c.Cache.SQLitePath,
	}
}

// Init writes the default configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
