package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that normalize cannot repair.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths: data_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths: log_dir is required")
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return nil
}

// ValidateEndpoint is checked separately because read-only commands (list,
// status) are useful before the endpoint is configured.
func (c *Config) ValidateEndpoint() error {
	if strings.TrimSpace(c.Endpoint.URL) == "" {
		return errors.New("endpoint: url is required before items can be delivered")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging: unsupported format %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unsupported level %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if strings.TrimSpace(c.API.Bind) != "" && strings.TrimSpace(c.API.Token) == "" {
		return errors.New("api: token is required when bind is set")
	}
	return nil
}
