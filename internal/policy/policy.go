// Package policy resolves the safety-net policy: which git rules are active and
// whether a match blocks, warns, or is allowed.
//
// Policies are read from a trust-ranked list of JSON files. A hardened managed
// mode trusts only one designated file and validates its integrity first.
// Any failure falls back to Default, which blocks every rule.
//
// Schema validation of policy files belongs to a separate post-edit checker
// (validate(path) -> ok, errors, warnings). Nothing in this package calls it.
package policy

import (
	"sort"

	"github.com/Dicklesworthstone/scc-safety-net/internal/gitrules"
)

// Action is what happens when an enabled rule matches.
type Action string

const (
	ActionBlock Action = "block"
	ActionWarn  Action = "warn"
	ActionAllow Action = "allow"
)

// Valid reports whether a is one of block, warn or allow.
func (a Action) Valid() bool {
	switch a {
	case ActionBlock, ActionWarn, ActionAllow:
		return true
	default:
		return false
	}
}

// Policy is an action mode plus per-rule switches keyed by rule name.
type Policy struct {
	Action Action
	Rules  map[string]bool
}

// Default returns the fail-safe policy: block mode with every rule enabled.
func Default() Policy {
	rules := make(map[string]bool, len(gitrules.AllRules()))
	for _, r := range gitrules.AllRules() {
		rules[string(r)] = true
	}
	return Policy{Action: ActionBlock, Rules: rules}
}

// EffectiveAction returns the configured action, or block when it is invalid.
func (p Policy) EffectiveAction() Action {
	if p.Action.Valid() {
		return p.Action
	}
	return ActionBlock
}

// RuleEnabled reports whether rule is on. Rules absent from the policy are on.
func (p Policy) RuleEnabled(rule gitrules.Rule) bool {
	enabled, ok := p.Rules[string(rule)]
	if !ok {
		return true
	}
	return enabled
}

// UnknownRules returns the block_* keys that name no rule, sorted. They are
// kept in Rules but have no effect.
func (p Policy) UnknownRules() []string {
	var unknown []string
	for name := range p.Rules {
		if !gitrules.IsKnownRule(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}
