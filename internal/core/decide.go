package core

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/scc-safety-net/internal/gitrules"
	"github.com/Dicklesworthstone/scc-safety-net/internal/policy"
)

// Decide checks command against p. The first enabled rule that matches decides
// the verdict; later vectors are not inspected.
func Decide(command string, p policy.Policy) Verdict {
	if strings.TrimSpace(command) == "" {
		return Verdict{Kind: Allow}
	}

	action := p.EffectiveAction()
	if action == policy.ActionAllow {
		return Verdict{Kind: Allow}
	}

	for _, vec := range ExtractCommands(command) {
		if vec.Program() != "git" {
			continue
		}
		finding, ok := gitrules.Analyze(vec)
		if !ok || !p.RuleEnabled(finding.Rule) {
			continue
		}

		v := Verdict{
			Kind:    Block,
			Reason:  finding.Reason,
			Rule:    string(finding.Rule),
			Pattern: finding.Pattern,
		}
		if action == policy.ActionWarn {
			v.Kind = Warn
		}
		return v
	}
	return Verdict{Kind: Allow}
}

// PolicySource supplies the policy for a check. *policy.Resolver implements it.
type PolicySource interface {
	Resolve() policy.Resolution
}

// Checker resolves the policy and decides, one resolution per call.
type Checker struct {
	Source PolicySource
	// Override, when set, is used instead of resolving.
	Override *policy.Policy
	Logger   *log.Logger
}

// NewChecker returns a Checker backed by source.
func NewChecker(source PolicySource, logger *log.Logger) *Checker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Checker{Source: source, Logger: logger}
}

// Check decides command under the current policy, carrying any resolution
// warning on the verdict.
func (c *Checker) Check(command string) Verdict {
	res := c.resolve()
	p := res.Policy
	v := Decide(command, p)
	v.Warning = res.Warning
	v.PolicySource = res.Source
	v.Managed = res.Managed

	if c.Logger != nil {
		c.Logger.Debug("checked command",
			"verdict", v.Kind,
			"rule", v.Rule,
			"action", p.EffectiveAction(),
		)
	}
	return v
}

func (c *Checker) resolve() policy.Resolution {
	if c.Override != nil {
		return policy.Resolution{Policy: *c.Override}
	}
	if c.Source == nil {
		return policy.Resolution{Policy: policy.Default()}
	}
	res := c.Source.Resolve()
	if res.Warning != "" && c.Logger != nil {
		c.Logger.Warn("policy fallback", "warning", res.Warning)
	}
	return res
}
