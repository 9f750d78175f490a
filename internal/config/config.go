// Package config provides configuration loading and structs for the mazad server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables that override the config file.
const (
	EnvDatabaseURL = "MAZAD_DATABASE_URL"
	EnvPort        = "MAZAD_PORT"
	EnvDebug       = "MAZAD_DEBUG"
	EnvGeminiKey   = "GEMINI_API_KEY"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	LogFile     string            `yaml:"log_file,omitempty"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Search      SearchConfig      `yaml:"search"`
	Expansion   ExpansionConfig   `yaml:"expansion"`
	Sync        SyncConfig        `yaml:"sync"`
	ImageSearch ImageSearchConfig `yaml:"image_search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig selects the listing store and holds paths for the database and index.
type StorageConfig struct {
	Driver         string `yaml:"driver"`
	DatabasePath   string `yaml:"database_path"`
	DatabaseURL    string `yaml:"database_url,omitempty"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	DefaultLimit   int     `yaml:"default_limit"`
	MaxLimit       int     `yaml:"max_limit"`
	TopKCandidates int     `yaml:"top_k_candidates"`
	TitleBoost     float64 `yaml:"title_boost"`
	// AutoFuzzy retries a search with fuzzy matching when it finds nothing.
	AutoFuzzy *bool `yaml:"auto_fuzzy"`
}

// AutoFuzzyOrDefault returns whether auto-fuzzy retries are on; defaults to true when unset.
func (s *SearchConfig) AutoFuzzyOrDefault() bool {
	if s.AutoFuzzy != nil {
		return *s.AutoFuzzy
	}
	return true
}

// ExpansionConfig controls the query expansion dictionaries.
type ExpansionConfig struct {
	// DictionaryPath replaces the built-in dictionaries when set.
	DictionaryPath    string `yaml:"dictionary_path,omitempty"`
	Watch             bool   `yaml:"watch"`
	SymmetricConcepts bool   `yaml:"symmetric_concepts"`
}

// SyncConfig holds index synchronization settings.
type SyncConfig struct {
	BatchSize int `yaml:"batch_size"`
	// ReconcileInterval is how often a full resync runs. Zero disables it.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// ImageSearchConfig holds the image analysis model settings.
type ImageSearchConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key,omitempty"`
}

// Load reads and parses the config file at path, expands paths, applies
// defaults and then environment overrides.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	if cfg.Expansion.DictionaryPath != "" {
		cfg.Expansion.DictionaryPath = expandPath(cfg.Expansion.DictionaryPath, configDir)
	}
	if cfg.LogFile != "" {
		cfg.LogFile = expandPath(cfg.LogFile, configDir)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the default configuration with environment overrides applied.
func Default() (*Config, error) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env") into
// the process environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from the environment. A database URL switches the
// driver to postgres.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Storage.DatabaseURL = v
		cfg.Storage.Driver = DriverPostgres
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, v, err)
		}
		cfg.Debug = debug
	}
	if v := os.Getenv(EnvGeminiKey); v != "" {
		cfg.ImageSearch.APIKey = v
	}
	return nil
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage driver %q requires database_url or %s", DriverPostgres, EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
