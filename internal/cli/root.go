// Package cli implements the scc-safety-net command tree.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/scc-safety-net/internal/config"
	"github.com/Dicklesworthstone/scc-safety-net/internal/output"
	"github.com/Dicklesworthstone/scc-safety-net/internal/policy"
	"github.com/Dicklesworthstone/scc-safety-net/internal/utils"
)

// Version is set at build time.
var Version = "dev"

var (
	flagOutput  string
	flagJSON    bool
	flagProject string
	flagConfig  string
	flagStatus  bool
)

var rootCmd = &cobra.Command{
	Use:   "scc-safety-net",
	Short: "Pre-execution guard for destructive git commands",
	Long: `scc-safety-net inspects shell commands before an agent runs them and
blocks destructive git operations: force pushes, hard resets, force branch
deletes, stash drops, cleans, worktree discards and history rewrites.

Run without arguments it acts as a PreToolUse hook: it reads the hook JSON
from stdin, writes diagnostics to stderr and exits 2 to block.

Policy is read from $SCC_POLICY_PATH, .scc/effective_policy.json or
~/.cache/scc/org_config.json, first trusted file wins. With SCC_MANAGED=1
only $SCC_POLICY_PATH is consulted.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagStatus {
			return runStatus(cmd)
		}
		return runHook(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output format: text, json, yaml (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "json output (shorthand for --output json)")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "project config file (default: .scc/safety-net.toml)")
	rootCmd.Flags().BoolVar(&flagStatus, "status", false, "show protection status and exit")
}

// exitError carries a process exit status through cobra without printing.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the root command and returns the process exit status.
func Execute() int {
	return execute(rootCmd)
}

func execute(root *cobra.Command) int {
	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	format, ferr := output.ParseFormat(flagDefaults().Output.Format)
	if ferr != nil {
		format = output.FormatText
	}
	_ = output.New(root.ErrOrStderr(), format).WriteError(err, 1)
	return 1
}

// projectPath returns the absolute project directory.
func projectPath() (string, error) {
	if flagProject != "" {
		return filepath.Abs(flagProject)
	}
	return os.Getwd()
}

// loadConfig loads settings for the current project.
func loadConfig() (config.Config, error) {
	project, err := projectPath()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving project: %w", err)
	}
	return config.Load(config.LoadOptions{
		ProjectDir:    project,
		ConfigPath:    flagConfig,
		FlagOverrides: flagOverrides(),
	})
}

// flagOverrides maps --json and --output onto config keys.
func flagOverrides() map[string]any {
	switch {
	case flagJSON:
		return map[string]any{"output.format": string(output.FormatJSON)}
	case flagOutput != "":
		return map[string]any{"output.format": strings.ToLower(flagOutput)}
	}
	return nil
}

// flagDefaults is the built-in config with flag overrides applied, for
// commands that must not depend on config files.
func flagDefaults() config.Config {
	cfg := config.DefaultConfig()
	if f, ok := flagOverrides()["output.format"].(string); ok {
		cfg.Output.Format = f
	}
	return cfg
}

func newWriter(cmd *cobra.Command, cfg config.Config) (*output.Writer, error) {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	return output.New(cmd.OutOrStdout(), format), nil
}

// cliLogger logs to stderr for interactive subcommands.
func cliLogger(cmd *cobra.Command, cfg config.Config) *log.Logger {
	opts := utils.DefaultLoggerOptions()
	opts.Level = cfg.Logging.Level
	opts.Output = cmd.ErrOrStderr()
	return utils.InitLogger(opts)
}

func newResolver(cfg config.Config, logger *log.Logger) (*policy.Resolver, error) {
	project, err := projectPath()
	if err != nil {
		return nil, fmt.Errorf("resolving project: %w", err)
	}
	return &policy.Resolver{
		ProjectDir:    project,
		WorkspacePath: cfg.Policy.WorkspacePath,
		CachePath:     cfg.Policy.CachePath,
		Logger:        logger,
	}, nil
}
