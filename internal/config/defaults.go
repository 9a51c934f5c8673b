package config

// Default returns the baseline configuration before any file is applied.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/linkq",
			LogDir:  "~/.local/share/linkq/logs",
		},
		Endpoint: Endpoint{
			TimeoutSeconds: 30,
		},
		Sync: Sync{
			PollIntervalSeconds: 30,
			LeaseTimeoutSeconds: 120,
		},
		Trigger: Trigger{
			ProbeHost:            "1.1.1.1:443",
			ProbeIntervalSeconds: 15,
			NetlinkHints:         true,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
