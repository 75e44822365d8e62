package config

import "github.com/Dicklesworthstone/scc-safety-net/internal/redact"

// DefaultConfig returns the built-in default configuration.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
		History: HistoryConfig{
			Enabled:       false,
			DatabasePath:  "",
			RetentionDays: 90,
		},
		Output: OutputConfig{
			Format:          "text",
			Color:           "auto",
			MaxReasonLength: redact.DefaultMaxLength,
		},
		Policy: PolicyConfig{
			WorkspacePath: "",
			CachePath:     "",
		},
	}
}
