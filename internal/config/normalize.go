package config

import (
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEndpoint(); err != nil {
		return err
	}
	c.normalizeSync()
	c.normalizeTrigger()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEndpoint() error {
	c.Endpoint.URL = strings.TrimSpace(c.Endpoint.URL)
	c.Endpoint.Token = strings.TrimSpace(c.Endpoint.Token)
	if c.Endpoint.TimeoutSeconds <= 0 {
		c.Endpoint.TimeoutSeconds = 30
	}
	if c.Endpoint.URL == "" {
		return nil
	}
	parsed, err := url.Parse(c.Endpoint.URL)
	if err != nil {
		return fmt.Errorf("endpoint url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("endpoint url: unsupported scheme %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) normalizeSync() {
	if c.Sync.PollIntervalSeconds <= 0 {
		c.Sync.PollIntervalSeconds = 30
	}
	if c.Sync.LeaseTimeoutSeconds <= 0 {
		c.Sync.LeaseTimeoutSeconds = 120
	}
}

func (c *Config) normalizeTrigger() {
	c.Trigger.ProbeHost = strings.TrimSpace(c.Trigger.ProbeHost)
	if c.Trigger.ProbeHost == "" {
		c.Trigger.ProbeHost = "1.1.1.1:443"
	}
	if c.Trigger.ProbeIntervalSeconds <= 0 {
		c.Trigger.ProbeIntervalSeconds = 15
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
