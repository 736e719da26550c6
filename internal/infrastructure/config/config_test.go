package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDocsDir, EnvDiscovery, EnvLogLevel, EnvLogFormat} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if *cfg != *Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	input := &Config{DocsDir: "docs/agents", Discovery: "mtime", LogLevel: "debug", LogFormat: "json"}
	if err := Save(root, input); err != nil {
		t.Fatalf("save config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if *cfg != *input {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.DiscoveryStrategy() != "mtime" {
		t.Fatalf("unexpected strategy %q", cfg.DiscoveryStrategy())
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".flowgate"), 0700); err != nil {
		t.Fatalf("mkdir .flowgate: %v", err)
	}
	if err := os.WriteFile(Path(root), []byte("::bad"), 0600); err != nil {
		t.Fatalf("write bad config: %v", err)
	}

	if _, err := Load(root); err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	if err := Save(root, &Config{DocsDir: "docs", Discovery: "name", LogLevel: "info", LogFormat: "text"}); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDiscovery, "mtime")

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Discovery != "mtime" || cfg.DocsDir != "docs" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	dir := filepath.Join(root, ".flowgate")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	env := "FLOWGATE_LOG_LEVEL=debug\nFLOWGATE_LOG_FORMAT=json\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvLogFormat, "text")
	// godotenv skips keys that are present at all, even when empty.
	if err := os.Unsetenv(EnvLogLevel); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected .env log level, got %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("environment should win over .env, got %q", cfg.LogFormat)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"empty docs dir", func(c *Config) { c.DocsDir = "" }},
		{"absolute docs dir", func(c *Config) { c.DocsDir = "/tmp/docs" }},
		{"escaping docs dir", func(c *Config) { c.DocsDir = "../docs" }},
		{"bad discovery", func(c *Config) { c.Discovery = "random" }},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
