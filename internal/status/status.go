// Package status reports the guard's effective configuration: mode, policy
// source, per-rule state and the catalog of blocked and allowed commands.
package status

import (
	"strings"

	"github.com/Dicklesworthstone/scc-safety-net/internal/gitrules"
	"github.com/Dicklesworthstone/scc-safety-net/internal/policy"
)

// Report is the structured status. PolicyPath is nil when built-in defaults
// are in effect.
type Report struct {
	Version          string            `json:"version" yaml:"version"`
	Mode             string            `json:"mode" yaml:"mode"`
	Managed          bool              `json:"managed" yaml:"managed"`
	PolicyPath       *string           `json:"policy_path" yaml:"policy_path"`
	Rules            map[string]bool   `json:"rules" yaml:"rules"`
	BlockedCommands  []string          `json:"blocked_commands" yaml:"blocked_commands"`
	SafeAlternatives map[string]string `json:"safe_alternatives" yaml:"safe_alternatives"`
	AllowedCommands  []string          `json:"allowed_commands" yaml:"allowed_commands"`
	Warning          string            `json:"warning,omitempty" yaml:"warning,omitempty"`

	blocked []gitrules.Entry
}

// Build assembles a report from a policy resolution.
func Build(res policy.Resolution, version string) Report {
	p := res.Policy
	r := Report{
		Version:          version,
		Mode:             string(p.EffectiveAction()),
		Managed:          res.Managed,
		Rules:            make(map[string]bool, len(gitrules.AllRules())),
		SafeAlternatives: make(map[string]string),
		AllowedCommands:  gitrules.Allowed(),
		Warning:          res.Warning,
		blocked:          gitrules.Blocked(),
	}
	if res.Source != "" {
		src := res.Source
		r.PolicyPath = &src
	}
	for _, rule := range gitrules.AllRules() {
		r.Rules[string(rule)] = p.RuleEnabled(rule)
	}
	for _, e := range r.blocked {
		r.BlockedCommands = append(r.BlockedCommands, e.Pattern)
		r.SafeAlternatives[e.Pattern] = e.Alternative
	}
	return r
}

// PolicyLabel is the policy path, or "built-in defaults".
func (r Report) PolicyLabel() string {
	if r.PolicyPath == nil {
		return "built-in defaults"
	}
	return *r.PolicyPath
}

// ModeLabel is the mode as shown in text output.
func (r Report) ModeLabel() string {
	if r.Mode == string(policy.ActionBlock) {
		return "BLOCK (default)"
	}
	return strings.ToUpper(r.Mode)
}

// Text renders the report without styling.
func (r Report) Text() string {
	return RenderText(r, false)
}

// entries returns the catalog rows, rebuilding them for reports that were
// decoded rather than built.
func (r Report) entries() []gitrules.Entry {
	if r.blocked != nil {
		return r.blocked
	}
	out := make([]gitrules.Entry, 0, len(r.BlockedCommands))
	for _, pattern := range r.BlockedCommands {
		out = append(out, gitrules.Entry{Pattern: pattern, Alternative: r.SafeAlternatives[pattern]})
	}
	return out
}

func (r Report) ruleEnabled(rule gitrules.Rule) bool {
	if rule == "" {
		return true
	}
	enabled, ok := r.Rules[string(rule)]
	return !ok || enabled
}
