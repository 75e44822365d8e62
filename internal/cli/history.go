package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/scc-safety-net/internal/db"
	"github.com/Dicklesworthstone/scc-safety-net/internal/output"
	"github.com/Dicklesworthstone/scc-safety-net/internal/redact"
)

var (
	flagHistoryLimit int
	flagHistoryKind  string
	flagHistoryPrune bool
	flagHistoryStats bool
)

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "maximum decisions to show (0 for all)")
	historyCmd.Flags().StringVarP(&flagHistoryKind, "kind", "k", "", "only show decisions of this kind: block, warn")
	historyCmd.Flags().BoolVar(&flagHistoryPrune, "prune", false, "delete decisions older than history.retention_days")
	historyCmd.Flags().BoolVar(&flagHistoryStats, "stats", false, "show counts by kind and rule")
	rootCmd.AddCommand(historyCmd)
}

type pruneResult struct {
	Pruned int64     `json:"pruned" yaml:"pruned"`
	Cutoff time.Time `json:"cutoff" yaml:"cutoff"`
}

func (r pruneResult) Text() string {
	return fmt.Sprintf("Pruned %d decisions older than %s", r.Pruned, r.Cutoff.Format(time.RFC3339))
}

type statsView struct {
	*db.Stats
}

func (s statsView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total decisions: %d\n", s.Total)
	fmt.Fprintf(&b, "  block: %d\n  warn:  %d\n", s.ByKind[db.DecisionKindBlock], s.ByKind[db.DecisionKindWarn])
	if len(s.ByRule) > 0 {
		b.WriteString("By rule:\n")
		rows := make([][]string, 0, len(s.ByRule))
		for rule, n := range s.ByRule {
			rows = append(rows, []string{"  " + rule, strconv.Itoa(n)})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
		_ = output.Table(&b, nil, rows)
	}
	return strings.TrimRight(b.String(), "\n")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded warn and block decisions",
	Long: `Show decisions recorded by the hook, newest first.

Only warn and block verdicts are recorded, and only while history.enabled
is true.

Examples:
  scc-safety-net history
  scc-safety-net history -n 50 --kind block
  scc-safety-net history --stats --json
  scc-safety-net history --prune`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		w, err := newWriter(cmd, cfg)
		if err != nil {
			return err
		}
		switch flagHistoryKind {
		case "", db.DecisionKindBlock, db.DecisionKindWarn:
		default:
			return fmt.Errorf("invalid --kind %q (want block|warn)", flagHistoryKind)
		}

		store, err := openHistory(cfg)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()

		if flagHistoryPrune {
			cutoff := time.Now().UTC().AddDate(0, 0, -cfg.History.RetentionDays)
			n, err := store.PruneDecisions(cutoff)
			if err != nil {
				return err
			}
			return w.Write(pruneResult{Pruned: n, Cutoff: cutoff})
		}

		if flagHistoryStats {
			stats, err := store.GetStats()
			if err != nil {
				return err
			}
			if w.Format().IsStructured() {
				return w.Write(stats)
			}
			return w.Write(statsView{stats})
		}

		decisions, err := store.ListDecisions(db.DecisionFilter{Kind: flagHistoryKind, Limit: flagHistoryLimit})
		if err != nil {
			return err
		}
		if w.Format().IsStructured() {
			return w.Write(decisions)
		}
		if len(decisions) == 0 {
			return w.Write("No decisions recorded.")
		}

		rows := make([][]string, 0, len(decisions))
		for _, d := range decisions {
			rows = append(rows, []string{
				d.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				strings.ToUpper(d.Kind),
				d.Rule,
				redact.Truncate(d.Command, 60),
			})
		}
		return output.Table(cmd.OutOrStdout(), []string{"TIME", "KIND", "RULE", "COMMAND"}, rows)
	},
}

