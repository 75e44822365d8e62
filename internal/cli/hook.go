package cli

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/scc-safety-net/internal/config"
	"github.com/Dicklesworthstone/scc-safety-net/internal/core"
	"github.com/Dicklesworthstone/scc-safety-net/internal/db"
	"github.com/Dicklesworthstone/scc-safety-net/internal/hook"
	"github.com/Dicklesworthstone/scc-safety-net/internal/policy"
	"github.com/Dicklesworthstone/scc-safety-net/internal/redact"
	"github.com/Dicklesworthstone/scc-safety-net/internal/utils"
)

func init() {
	rootCmd.AddCommand(hookCmd)
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run as a PreToolUse hook (the default with no arguments)",
	Long: `Read one hook payload from stdin and decide the Bash command in it.

Exit status 2 blocks the command; the reason is written to stderr.
Malformed input, other tools and empty commands are allowed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHook(cmd)
	},
}

// runHook never fails on configuration problems: the guard keeps running on
// defaults and reports only through the hook log.
func runHook(cmd *cobra.Command) error {
	cfg, cfgErr := loadConfig()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	logger := utils.InitHookLogger(cfg.Logging.File, cfg.Logging.Level)
	if cfgErr != nil {
		logger.Warn("config rejected, using defaults", "error", cfgErr)
	}

	resolver, err := newResolver(cfg, logger)
	if err != nil {
		logger.Warn("project unresolved", "error", err)
		resolver = &policy.Resolver{Logger: logger}
	}

	opts := hook.Options{
		Checker:   core.NewChecker(resolver, logger),
		Sanitizer: redact.Sanitizer{MaxLength: cfg.Output.MaxReasonLength},
		Logger:    logger,
	}
	if cfg.History.Enabled {
		rec := &lazyRecorder{cfg: cfg, logger: logger}
		defer rec.Close()
		opts.Recorder = rec
	}

	if code := hook.Run(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr(), opts); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// lazyRecorder opens the history database on first use, so allowed commands
// never touch it.
type lazyRecorder struct {
	cfg    config.Config
	logger *log.Logger

	once  sync.Once
	store *db.DB
	err   error
}

func (r *lazyRecorder) RecordDecisionContext(ctx context.Context, d *db.Decision) error {
	r.once.Do(func() {
		r.store, r.err = openHistory(r.cfg)
	})
	if r.err != nil {
		return r.err
	}
	return r.store.RecordDecisionContext(ctx, d)
}

func (r *lazyRecorder) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Debug("closing history", "error", err)
		}
	}
}

func openHistory(cfg config.Config) (*db.DB, error) {
	path, err := config.HistoryPath(cfg)
	if err != nil {
		return nil, err
	}
	return db.Open(path)
}
