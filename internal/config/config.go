// Package config loads and validates docdex configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	derrors "github.com/Aman-CERP/docdex/internal/errors"
)

// ConfigFileName is the per-directory configuration file.
const ConfigFileName = ".docdex.yaml"

// Backend selects the storage backend for the corpus.
type Backend string

const (
	// BackendSnapshot keeps the corpus in memory and persists a JSON snapshot.
	BackendSnapshot Backend = "snapshot"
	// BackendSQLite keeps the corpus in a SQLite database.
	BackendSQLite Backend = "sqlite"
)

// Config represents the complete docdex configuration.
type Config struct {
	Version int           `yaml:"version"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

// IndexConfig configures the indexing pass.
type IndexConfig struct {
	// Exclude lists directory or file base names skipped during traversal.
	Exclude []string `yaml:"exclude"`

	// Stemming enables the optional Snowball normalization stage.
	// Indexing and querying always share the same setting.
	Stemming bool `yaml:"stemming"`

	// RescanInterval is the fallback full-rescan period in serve mode.
	RescanInterval time.Duration `yaml:"rescan_interval"`

	// WatchDebounce is the quiet window after a filesystem event before a
	// rescan is triggered.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// SearchConfig configures query handling.
type SearchConfig struct {
	// MaxResults is the number of ranked results returned to clients.
	MaxResults int `yaml:"max_results"`

	// CacheTTL bounds how long a cached query response may be served.
	// Zero disables the response cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheSize is the maximum number of cached query responses.
	CacheSize int `yaml:"cache_size"`
}

// ServerConfig configures the HTTP query service.
type ServerConfig struct {
	Address  string `yaml:"address"`
	LogLevel string `yaml:"log_level"`
}

// StorageConfig configures the storage backend.
type StorageConfig struct {
	// Backend is "snapshot" or "sqlite".
	Backend Backend `yaml:"backend"`

	// Path is the index file location. Defaults to index.json or index.db
	// depending on the backend.
	Path string `yaml:"path"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Exclude:        []string{".git", ".docdex", "node_modules"},
			Stemming:       false,
			RescanInterval: 5 * time.Minute,
			WatchDebounce:  500 * time.Millisecond,
		},
		Search: SearchConfig{
			MaxResults: 20,
			CacheTTL:   10 * time.Second,
			CacheSize:  128,
		},
		Server: ServerConfig{
			Address:  "127.0.0.1:6969",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			Backend: BackendSnapshot,
		},
	}
}

// IndexPath returns the configured index path, or the backend's default.
func (c *Config) IndexPath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Backend == BackendSQLite {
		return "index.db"
	}
	return "index.json"
}

// Load reads configuration from dir/.docdex.yaml, applies environment
// overrides, and validates the result. A missing file yields defaults.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, derrors.New(derrors.ErrCodeConfigNotFound,
				fmt.Sprintf("could not read %s", path), err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, derrors.New(derrors.ErrCodeConfigInvalid,
			fmt.Sprintf("could not parse %s", path), err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies DOCDEX_* environment variables.
// Env vars take priority over the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOCDEX_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("DOCDEX_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("DOCDEX_BACKEND"); v != "" {
		cfg.Storage.Backend = Backend(v)
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Search.MaxResults <= 0 {
		return derrors.New(derrors.ErrCodeConfigInvalid,
			"search.max_results must be positive", nil)
	}
	if c.Search.CacheSize < 0 {
		return derrors.New(derrors.ErrCodeConfigInvalid,
			"search.cache_size must not be negative", nil)
	}
	switch c.Storage.Backend {
	case BackendSnapshot, BackendSQLite:
	default:
		return derrors.New(derrors.ErrCodeConfigInvalid,
			fmt.Sprintf("storage.backend must be %q or %q, got %q",
				BackendSnapshot, BackendSQLite, c.Storage.Backend), nil)
	}
	return nil
}

// Save writes the configuration to dir/.docdex.yaml.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return derrors.New(derrors.ErrCodeConfigInvalid, "could not encode config", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return derrors.New(derrors.ErrCodeIndexWrite,
			fmt.Sprintf("could not write %s", path), err)
	}
	return nil
}
