package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/scc-safety-net/internal/status"
)

var flagStatusWatch bool

func init() {
	statusCmd.Flags().BoolVarP(&flagStatusWatch, "watch", "w", false, "re-render when a policy file changes")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective policy and the blocked command catalog",
	Long: `Show the mode, the policy file in effect, per-rule state and the
commands that are blocked or explicitly allowed.

Examples:
  scc-safety-net status
  scc-safety-net status --json
  scc-safety-net status --watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd)
	},
}

func runStatus(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cliLogger(cmd, cfg)
	w, err := newWriter(cmd, cfg)
	if err != nil {
		return err
	}
	resolver, err := newResolver(cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	render := func() error {
		report := status.Build(resolver.Resolve(), Version)
		if w.Format().IsStructured() {
			return w.Write(report)
		}
		_, err := fmt.Fprint(out, status.RenderText(report, status.ShouldStyle(cfg.Output.Color, out)))
		return err
	}

	if err := render(); err != nil {
		return err
	}
	if !flagStatusWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("watching policy files", "paths", resolver.Candidates())
	return status.Watch(ctx, resolver.Candidates(), status.WatchOptions{Logger: logger}, func(path string) {
		logger.Info("policy changed", "path", path)
		if err := render(); err != nil {
			logger.Error("rendering status", "error", err)
		}
	})
}
