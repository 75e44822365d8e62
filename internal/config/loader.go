package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

const (
	configDirName  = ".scc"
	configFileName = "safety-net.toml"
	historyDBName  = "safety-net-history.db"
)

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ProjectDir is used to locate .scc/safety-net.toml. Defaults to CWD when empty.
	ProjectDir string
	// ConfigPath overrides the project config path if provided.
	ConfigPath string
	// FlagOverrides are highest-priority overrides from CLI flags (dot-notated keys).
	FlagOverrides map[string]any
}

// Load returns the effective configuration after applying precedence:
// defaults < user (~/.scc/safety-net.toml) < project (.scc/safety-net.toml) < env (SCC_SAFETY_NET_*) < flags.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	projectDir := opts.ProjectDir
	if projectDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			projectDir = cwd
		}
	}

	if err := mergeConfigFile(v, userConfigPath()); err != nil {
		return Config{}, err
	}
	if err := mergeConfigFile(v, projectConfigPath(projectDir, opts.ConfigPath)); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(v); err != nil {
		return Config{}, err
	}
	applyFlagOverrides(v, opts.FlagOverrides)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults seeds viper with built-in defaults.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)

	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("history.database_path", def.History.DatabasePath)
	v.SetDefault("history.retention_days", def.History.RetentionDays)

	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("output.color", def.Output.Color)
	v.SetDefault("output.max_reason_length", def.Output.MaxReasonLength)

	v.SetDefault("policy.workspace_path", def.Policy.WorkspacePath)
	v.SetDefault("policy.cache_path", def.Policy.CachePath)
}

// mergeConfigFile merges the TOML config file if it exists.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides reads SCC_SAFETY_NET_* env vars and applies them.
func applyEnvOverrides(v *viper.Viper) error {
	for _, binding := range envBindings {
		val := os.Getenv(binding.Env)
		if val == "" {
			continue
		}
		parsed, err := parseValueByKind(val, binding.Kind)
		if err != nil {
			return fmt.Errorf("env %s: %w", binding.Env, err)
		}
		v.Set(binding.Key, parsed)
	}
	return nil
}

// applyFlagOverrides applies CLI overrides as highest-precedence values.
func applyFlagOverrides(v *viper.Viper, overrides map[string]any) {
	for k, val := range overrides {
		v.Set(k, val)
	}
}

// ConfigPaths returns the user and project config file paths.
func ConfigPaths(projectDir, configOverride string) (string, string) {
	return userConfigPath(), projectConfigPath(projectDir, configOverride)
}

// HistoryPath returns the database path to use: the configured one, or
// ~/.scc/safety-net-history.db.
func HistoryPath(cfg Config) (string, error) {
	if cfg.History.DatabasePath != "" {
		return cfg.History.DatabasePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, configDirName, historyDBName), nil
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDirName, configFileName)
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	if projectDir == "" {
		return filepath.Join(configDirName, configFileName)
	}
	return filepath.Join(projectDir, configDirName, configFileName)
}

// Keys returns every supported dot-notated key in display order.
func Keys() []string {
	keys := make([]string, 0, len(envBindings))
	for _, b := range envBindings {
		keys = append(keys, b.Key)
	}
	return keys
}

// ParseValue parses a raw string into the expected type for a given config key.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", key)
	}
	return parseValueByKind(raw, kind)
}

// GetValue retrieves a dot-notated value from the Config.
func GetValue(cfg Config, key string) (any, bool) {
	section, field, ok := strings.Cut(key, ".")
	if !ok {
		return nil, false
	}
	switch section {
	case "logging":
		switch field {
		case "level":
			return cfg.Logging.Level, true
		case "file":
			return cfg.Logging.File, true
		}
	case "history":
		switch field {
		case "enabled":
			return cfg.History.Enabled, true
		case "database_path":
			return cfg.History.DatabasePath, true
		case "retention_days":
			return cfg.History.RetentionDays, true
		}
	case "output":
		switch field {
		case "format":
			return cfg.Output.Format, true
		case "color":
			return cfg.Output.Color, true
		case "max_reason_length":
			return cfg.Output.MaxReasonLength, true
		}
	case "policy":
		switch field {
		case "workspace_path":
			return cfg.Policy.WorkspacePath, true
		case "cache_path":
			return cfg.Policy.CachePath, true
		}
	}
	return nil, false
}

// WriteValue sets a single key/value into the specified TOML config file (creating it if needed).
func WriteValue(path, key string, value any) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	var existing map[string]any
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &existing); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
		if existing == nil {
			existing = map[string]any{}
		}
	} else {
		existing = map[string]any{}
	}

	if err := setNested(existing, key, value); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	enc.Indent = "  "
	if err := enc.Encode(existing); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func setNested(m map[string]any, key string, value any) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return fmt.Errorf("invalid key %q", key)
	}
	cur := m
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = value
			return nil
		}
		next, ok := cur[p]
		if !ok {
			child := map[string]any{}
			cur[p] = child
			cur = child
			continue
		}
		childMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set %s: %s is not a table", key, strings.Join(parts[:i+1], "."))
		}
		cur = childMap
	}
	return nil
}

// Helpers for env + parsing ---------------------------------------------------

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
)

var envBindings = []struct {
	Env  string
	Key  string
	Kind valueKind
}{
	{"SCC_SAFETY_NET_LOG_LEVEL", "logging.level", kindString},
	{"SCC_SAFETY_NET_LOG_FILE", "logging.file", kindString},

	{"SCC_SAFETY_NET_HISTORY", "history.enabled", kindBool},
	{"SCC_SAFETY_NET_HISTORY_DB_PATH", "history.database_path", kindString},
	{"SCC_SAFETY_NET_HISTORY_RETENTION_DAYS", "history.retention_days", kindInt},

	{"SCC_SAFETY_NET_OUTPUT_FORMAT", "output.format", kindString},
	{"SCC_SAFETY_NET_COLOR", "output.color", kindString},
	{"SCC_SAFETY_NET_MAX_REASON_LENGTH", "output.max_reason_length", kindInt},

	{"SCC_SAFETY_NET_WORKSPACE_POLICY", "policy.workspace_path", kindString},
	{"SCC_SAFETY_NET_CACHE_POLICY", "policy.cache_path", kindString},
}

var keyKinds = func() map[string]valueKind {
	m := make(map[string]valueKind, len(envBindings))
	for _, b := range envBindings {
		m[b.Key] = b.Kind
	}
	return m
}()

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		return raw, nil
	case kindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected boolean: %w", err)
		}
		return v, nil
	case kindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected integer: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported value kind")
	}
}
