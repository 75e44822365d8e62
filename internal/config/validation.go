package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for semantic errors.
func Validate(cfg Config) error {
	var errs []string

	if !oneOf(strings.ToLower(cfg.Logging.Level), "debug", "info", "warn", "warning", "error") {
		errs = append(errs, "logging.level must be one of debug|info|warn|error")
	}

	if cfg.History.RetentionDays < 0 {
		errs = append(errs, "history.retention_days cannot be negative")
	}

	if !oneOf(cfg.Output.Format, "text", "json", "yaml") {
		errs = append(errs, "output.format must be one of text|json|yaml")
	}
	if !oneOf(cfg.Output.Color, "auto", "always", "never") {
		errs = append(errs, "output.color must be one of auto|always|never")
	}
	if cfg.Output.MaxReasonLength < 0 {
		errs = append(errs, "output.max_reason_length cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func oneOf(val string, options ...string) bool {
	for _, opt := range options {
		if val == opt {
			return true
		}
	}
	return false
}
