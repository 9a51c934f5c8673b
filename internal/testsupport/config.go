// Package testsupport holds shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"linkq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Endpoint.URL = "https://save.example.com/api/save"
	cfg.Endpoint.Token = "test-token"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithEndpoint overrides the save endpoint URL on the test config.
func WithEndpoint(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Endpoint.URL = url
	}
}

// WithLeaseTimeout sets the sending lease timeout in seconds.
func WithLeaseTimeout(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.LeaseTimeoutSeconds = seconds
	}
}

// WithAPIBind enables the HTTP API on the test config.
func WithAPIBind(bind, token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.API.Bind = bind
		cfg.API.Token = token
	}
}
