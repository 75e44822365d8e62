package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/scc-safety-net/internal/core"
	"github.com/Dicklesworthstone/scc-safety-net/internal/policy"
	"github.com/Dicklesworthstone/scc-safety-net/internal/redact"
)

var flagCheckPolicy string

func init() {
	checkCmd.Flags().StringVarP(&flagCheckPolicy, "policy", "p", "", "check against this policy file instead of resolving one")
	// Flags after the first argument belong to the checked command.
	checkCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(checkCmd)
}

// checkResult is the rendered outcome of check.
type checkResult struct {
	Command    string `json:"command" yaml:"command"`
	Verdict    string `json:"verdict" yaml:"verdict"`
	Rule       string `json:"rule,omitempty" yaml:"rule,omitempty"`
	Pattern    string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Warning    string `json:"warning,omitempty" yaml:"warning,omitempty"`
	PolicyPath string `json:"policy_path,omitempty" yaml:"policy_path,omitempty"`
	ExitCode   int    `json:"exit_code" yaml:"exit_code"`

	message string
}

func (r checkResult) Text() string {
	var b strings.Builder
	if r.Warning != "" {
		fmt.Fprintf(&b, "scc-safety-net: %s\n", r.Warning)
	}
	if r.Verdict == core.Allow.String() {
		b.WriteString("ALLOWED: " + r.Command)
		return b.String()
	}
	b.WriteString(r.message)
	return b.String()
}

var checkCmd = &cobra.Command{
	Use:   "check <command>",
	Short: "Decide a command without running it",
	Long: `Decide a shell command the way the hook would and print the verdict.

Arguments are joined with spaces, so quoting the whole command is optional.
The exit status follows the hook contract: 2 when the command is blocked.

Examples:
  scc-safety-net check git push --force
  scc-safety-net check 'bash -c "git reset --hard"'
  scc-safety-net check -p policy.json -j git clean -fd`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		checker := core.NewChecker(resolver, logger)
		if flagCheckPolicy != "" {
			p, err := policy.LoadFile(flagCheckPolicy)
			if err != nil {
				return fmt.Errorf("loading policy: %w", err)
			}
			checker.Override = &p
		}

		command := strings.Join(args, " ")
		v := checker.Check(command)
		if flagCheckPolicy != "" {
			v.PolicySource = flagCheckPolicy
		}

		res := checkResult{
			Command:    redact.Secrets(command),
			Verdict:    v.Kind.String(),
			Rule:       v.Rule,
			Pattern:    v.Pattern,
			Reason:     v.Reason,
			Warning:    v.Warning,
			PolicyPath: v.PolicySource,
			ExitCode:   v.ExitCode(),
			message:    v.Message(),
		}
		if err := w.Write(res); err != nil {
			return err
		}
		if code := v.ExitCode(); code != 0 {
			return &exitError{code: code}
		}
		return nil
	},
}
