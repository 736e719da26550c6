package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/flowgate/pkg/storage"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvDocsDir   = "FLOWGATE_DOCS_DIR"
	EnvDiscovery = "FLOWGATE_DISCOVERY"
	EnvLogLevel  = "FLOWGATE_LOG_LEVEL"
	EnvLogFormat = "FLOWGATE_LOG_FORMAT"
)

// Config holds the per-root settings of flowgate.
type Config struct {
	DocsDir   string `yaml:"docs_dir"`
	Discovery string `yaml:"discovery"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DocsDir:   storage.DefaultDocsDir,
		Discovery: string(application.DiscoveryByName),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Path returns the config file location for root.
func Path(root string) string {
	return filepath.Join(root, storage.StateDir, storage.ConfigFile)
}

// LoadDotEnv loads <root>/.flowgate/.env if it exists. Variables already set
// in the environment win.
func LoadDotEnv(root string) error {
	envPath := filepath.Join(root, storage.StateDir, storage.EnvFile)
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	return nil
}

// Load reads the config for root: defaults, then the config file, then the
// environment (including .flowgate/.env).
func Load(root string) (*Config, error) {
	cfg := Default()

	if err := LoadDotEnv(root); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(Path(root))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDocsDir); v != "" {
		c.DocsDir = v
	}
	if v := os.Getenv(EnvDiscovery); v != "" {
		c.Discovery = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
}

// Validate rejects unknown values.
func (c *Config) Validate() error {
	if c.DocsDir == "" {
		return fmt.Errorf("docs_dir cannot be empty")
	}
	if filepath.IsAbs(c.DocsDir) || strings.HasPrefix(filepath.Clean(c.DocsDir), "..") {
		return fmt.Errorf("docs_dir must be relative to the task root: %q", c.DocsDir)
	}
	if !application.DiscoveryStrategy(c.Discovery).IsValid() {
		return fmt.Errorf("invalid discovery strategy %q (want %q or %q)",
			c.Discovery, application.DiscoveryByName, application.DiscoveryByModTime)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	return nil
}

// DiscoveryStrategy returns the configured artifact discovery strategy.
func (c *Config) DiscoveryStrategy() application.DiscoveryStrategy {
	return application.DiscoveryStrategy(c.Discovery)
}

// Save writes cfg to the config file for root.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(root, storage.StateDir), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", storage.StateDir, err)
	}
	return os.WriteFile(Path(root), data, 0600)
}
