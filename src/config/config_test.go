package config

import (
	"errors"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Model != defaultModel {
		t.Fatalf("unexpected default model: %q", cfg.Model)
	}
	if cfg.MaxTokens != defaultMaxTokens || cfg.MaxIterations != defaultMaxIterations {
		t.Fatalf("unexpected generation defaults: %+v", cfg)
	}
	if cfg.ServerAddr != defaultServerAddr {
		t.Fatalf("unexpected server addr: %q", cfg.ServerAddr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHIRON_MODEL", "claude-test")
	t.Setenv("CHIRON_MAX_TOKENS", "1024")
	t.Setenv("CHIRON_PROVIDER", "ollama")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Model != "claude-test" || cfg.MaxTokens != 1024 || cfg.Provider != "ollama" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsMalformedInt(t *testing.T) {
	t.Setenv("CHIRON_MAX_TOKENS", "lots")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for malformed CHIRON_MAX_TOKENS")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Key != "CHIRON_MAX_TOKENS" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDataDirLayout(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir()}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	if cfg.LessonsDir() == cfg.ProgressDir() {
		t.Fatalf("lesson and progress dirs collide")
	}
}
