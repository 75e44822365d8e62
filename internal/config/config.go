// Package config implements hierarchical settings for scc-safety-net itself.
// Precedence: defaults < user (~/.scc/safety-net.toml) < project (.scc/safety-net.toml) < env (SCC_SAFETY_NET_*) < flags.
//
// These settings control logging, history and output. The safety policy is
// resolved separately by package policy.
package config

// Config is the top-level configuration structure.
type Config struct {
	Logging LoggingConfig `toml:"logging" mapstructure:"logging" json:"logging" yaml:"logging"`
	History HistoryConfig `toml:"history" mapstructure:"history" json:"history" yaml:"history"`
	Output  OutputConfig  `toml:"output" mapstructure:"output" json:"output" yaml:"output"`
	Policy  PolicyConfig  `toml:"policy" mapstructure:"policy" json:"policy" yaml:"policy"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	Level string `toml:"level" mapstructure:"level" json:"level" yaml:"level"` // debug | info | warn | error
	// File receives hook-mode logs. Hook mode never logs to stderr.
	File string `toml:"file" mapstructure:"file" json:"file" yaml:"file"`
}

// HistoryConfig controls the decision history database.
type HistoryConfig struct {
	Enabled       bool   `toml:"enabled" mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	DatabasePath  string `toml:"database_path" mapstructure:"database_path" json:"database_path" yaml:"database_path"`
	RetentionDays int    `toml:"retention_days" mapstructure:"retention_days" json:"retention_days" yaml:"retention_days"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Format          string `toml:"format" mapstructure:"format" json:"format" yaml:"format"` // text | json | yaml
	Color           string `toml:"color" mapstructure:"color" json:"color" yaml:"color"`     // auto | always | never
	MaxReasonLength int    `toml:"max_reason_length" mapstructure:"max_reason_length" json:"max_reason_length" yaml:"max_reason_length"`
}

// PolicyConfig overrides where policy files are looked up.
type PolicyConfig struct {
	WorkspacePath string `toml:"workspace_path" mapstructure:"workspace_path" json:"workspace_path" yaml:"workspace_path"`
	CachePath     string `toml:"cache_path" mapstructure:"cache_path" json:"cache_path" yaml:"cache_path"`
}
