package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"linkq/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Endpoint.TimeoutSeconds != 30 {
		t.Fatalf("expected 30s endpoint timeout, got %d", cfg.Endpoint.TimeoutSeconds)
	}
	if cfg.Sync.LeaseTimeoutSeconds != 120 {
		t.Fatalf("expected 120s lease timeout, got %d", cfg.Sync.LeaseTimeoutSeconds)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[endpoint]
url = "https://saves.example.com/api/bookmark"
token = "secret"

[sync]
poll_interval_seconds = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, existed, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !existed {
		t.Fatal("expected config file to be detected")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %s, got %s", path, resolved)
	}
	if cfg.Endpoint.URL != "https://saves.example.com/api/bookmark" {
		t.Fatalf("unexpected endpoint url: %q", cfg.Endpoint.URL)
	}
	if cfg.Sync.PollIntervalSeconds != 5 {
		t.Fatalf("expected poll interval override, got %d", cfg.Sync.PollIntervalSeconds)
	}
	// Defaults fill whatever the file omits.
	if cfg.Sync.LeaseTimeoutSeconds != 120 {
		t.Fatalf("expected default lease timeout, got %d", cfg.Sync.LeaseTimeoutSeconds)
	}
}

func TestLoadRejectsBadEndpointScheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[endpoint]
url = "ftp://example.com/save"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected scheme validation error")
	}
}

func TestValidateAPIRequiresToken(t *testing.T) {
	cfg := config.Default()
	cfg.API.Bind = "127.0.0.1:7848"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when api bind is set without token")
	}
	cfg.API.Token = "tok"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config with token: %v", err)
	}
}

func TestValidateEndpointRequired(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateEndpoint(); err == nil {
		t.Fatal("expected endpoint validation error with empty url")
	}
	cfg.Endpoint.URL = "https://example.com"
	if err := cfg.ValidateEndpoint(); err != nil {
		t.Fatalf("expected endpoint to validate: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := config.ExpandPath("~/linkq-test")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if !strings.HasPrefix(got, home) {
		t.Fatalf("expected path under %s, got %s", home, got)
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error on second CreateSample")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[endpoint]") {
		t.Fatal("sample config should document the endpoint section")
	}
}
