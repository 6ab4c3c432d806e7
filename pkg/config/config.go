package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/plotwise/plotwise/pkg/models"
)

// Credential environment variables, checked in order.
var CredentialEnv = []string{"GEMINI_API_KEY", "API_KEY"}

// Config holds all plotwise configuration.
type Config struct {
	Listen  string        `yaml:"listen"`
	DBPath  string        `yaml:"db_path"`
	Backend BackendConfig `yaml:"backend"`
	Routes  []RouteConfig `yaml:"routes"`
	Cache   CacheConfig   `yaml:"cache"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig points at the inference backend.
type BackendConfig struct {
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	TextModel  string        `yaml:"text_model"`
	ImageModel string        `yaml:"image_model"`
}

// HasCredential reports whether an API key is configured.
func (b BackendConfig) HasCredential() bool {
	return b.APIKey != ""
}

// RouteConfig overrides the model or output budget of one operation.
type RouteConfig struct {
	Operation       models.Operation `yaml:"operation"`
	Model           string           `yaml:"model"`
	MaxOutputTokens int              `yaml:"max_output_tokens"`
}

// CacheConfig controls result memoization.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	Coalesce bool `yaml:"coalesce"`
}

// LedgerConfig controls the operation usage ledger.
type LedgerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// CatalogConfig locates the listing catalog. An empty path uses the built-in seed.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls log output. Format is "console", "json" or "auto".
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "plotwise.db",
		Backend: BackendConfig{
			URL:        "https://generativelanguage.googleapis.com",
			APIKey:     credentialFromEnv(),
			Timeout:    60 * time.Second,
			TextModel:  "gemini-2.5-flash",
			ImageModel: "gemini-2.5-flash-image",
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Ledger: LedgerConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads a YAML config file and expands environment variables. A .env
// file next to the config is loaded first; it never overrides variables
// already set in the environment.
func Load(path string) (*Config, error) {
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to defaults when path does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		loadDotEnv(".env")
		return Default(), nil
	}
	return cfg, err
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("config: backend.url is required")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("config: backend.timeout must not be negative")
	}
	for _, r := range c.Routes {
		if !knownOperation(r.Operation) {
			return fmt.Errorf("config: unknown route operation %q", r.Operation)
		}
		if r.MaxOutputTokens < 0 {
			return fmt.Errorf("config: route %s: max_output_tokens must not be negative", r.Operation)
		}
	}
	return nil
}

func knownOperation(op models.Operation) bool {
	for _, known := range models.Operations {
		if op == known {
			return true
		}
	}
	return false
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("skipping unreadable .env file")
	}
}

func credentialFromEnv() string {
	for _, name := range CredentialEnv {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
