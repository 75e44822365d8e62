package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/scc-safety-net/internal/config"
)

var flagConfigGlobal bool

func init() {
	configSetCmd.Flags().BoolVarP(&flagConfigGlobal, "global", "g", false, "write to the user config instead of the project config")
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and edit scc-safety-net settings",
	Long: `Show and edit the tool's own settings (logging, history, output and
policy lookup paths). The safety policy itself is not configured here.

Precedence: defaults < ~/.scc/safety-net.toml < .scc/safety-net.toml
< SCC_SAFETY_NET_* environment < flags.`,
}

// configView renders a Config as key = value lines.
type configView struct {
	config.Config
}

func (v configView) Text() string {
	var b strings.Builder
	for _, key := range config.Keys() {
		val, _ := config.GetValue(v.Config, key)
		fmt.Fprintf(&b, "%s = %v\n", key, val)
	}
	return strings.TrimRight(b.String(), "\n")
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		w, err := newWriter(cmd, cfg)
		if err != nil {
			return err
		}
		if w.Format().IsStructured() {
			return w.Write(cfg)
		}
		return w.Write(configView{cfg})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		val, ok := config.GetValue(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown key %q (known: %s)", args[0], strings.Join(config.Keys(), ", "))
		}
		w, err := newWriter(cmd, cfg)
		if err != nil {
			return err
		}
		if w.Format().IsStructured() {
			return w.Write(map[string]any{args[0]: val})
		}
		return w.Write(fmt.Sprint(val))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting to the project (or user) config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]
		val, err := config.ParseValue(key, raw)
		if err != nil {
			return err
		}

		project, err := projectPath()
		if err != nil {
			return err
		}
		userPath, projPath := config.ConfigPaths(project, flagConfig)
		path := projPath
		if flagConfigGlobal {
			path = userPath
		}
		if path == "" {
			return fmt.Errorf("no config path available")
		}
		if err := config.WriteValue(path, key, val); err != nil {
			return err
		}

		// Reload so invalid values are reported now rather than on the next hook run.
		if _, err := loadConfig(); err != nil {
			return fmt.Errorf("wrote %s but the result is invalid: %w", path, err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, val, path)
		return err
	},
}

type configPaths struct {
	User    string `json:"user" yaml:"user"`
	Project string `json:"project" yaml:"project"`
}

func (p configPaths) Text() string {
	return fmt.Sprintf("user:    %s\nproject: %s", p.User, p.Project)
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPath()
		if err != nil {
			return err
		}
		user, proj := config.ConfigPaths(project, flagConfig)
		w, err := newWriter(cmd, flagDefaults())
		if err != nil {
			return err
		}
		return w.Write(configPaths{User: user, Project: proj})
	},
}
