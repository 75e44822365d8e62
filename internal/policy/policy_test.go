package policy

import (
	"errors"
	"testing"

	"github.com/Dicklesworthstone/scc-safety-net/internal/gitrules"
)

func TestDefault(t *testing.T) {
	p := Default()
	if p.Action != ActionBlock {
		t.Fatalf("Action = %q, want block", p.Action)
	}
	for _, r := range gitrules.AllRules() {
		if !p.RuleEnabled(r) {
			t.Fatalf("rule %s disabled in default policy", r)
		}
	}

	// Each call returns an independent value.
	p.Rules[string(gitrules.RuleResetHard)] = false
	if !Default().RuleEnabled(gitrules.RuleResetHard) {
		t.Fatal("mutating one default policy leaked into the next")
	}
}

func TestEffectiveAction(t *testing.T) {
	cases := []struct {
		in   Action
		want Action
	}{
		{ActionBlock, ActionBlock},
		{ActionWarn, ActionWarn},
		{ActionAllow, ActionAllow},
		{"", ActionBlock},
		{"ALLOW", ActionBlock},
		{"permit", ActionBlock},
	}
	for _, tc := range cases {
		if got := (Policy{Action: tc.in}).EffectiveAction(); got != tc.want {
			t.Fatalf("EffectiveAction(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRuleEnabledDefaultsToTrue(t *testing.T) {
	p := Policy{Action: ActionBlock}
	if !p.RuleEnabled(gitrules.RuleForcePush) {
		t.Fatal("absent rule should be enabled")
	}
	p.Rules = map[string]bool{"block_force_push": false}
	if p.RuleEnabled(gitrules.RuleForcePush) {
		t.Fatal("explicitly disabled rule reported enabled")
	}
}

func TestParse(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		p, err := Parse([]byte(`{"action":"warn","block_reset_hard":false}`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if p.EffectiveAction() != ActionWarn {
			t.Fatalf("action = %q", p.Action)
		}
		if p.RuleEnabled(gitrules.RuleResetHard) {
			t.Fatal("block_reset_hard should be disabled")
		}
		if !p.RuleEnabled(gitrules.RuleForcePush) {
			t.Fatal("block_force_push should default to enabled")
		}
	})

	t.Run("nested", func(t *testing.T) {
		p, err := Parse([]byte(`{"org":"acme","security":{"safety_net":{"action":"allow"}}}`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if p.EffectiveAction() != ActionAllow {
			t.Fatalf("action = %q, want allow", p.Action)
		}
	})

	t.Run("rules only defaults action to block", func(t *testing.T) {
		p, err := Parse([]byte(`{"block_clean":false}`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if p.Action != ActionBlock {
			t.Fatalf("action = %q, want block", p.Action)
		}
	})

	t.Run("non-string action", func(t *testing.T) {
		p, err := Parse([]byte(`{"action":1}`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if p.EffectiveAction() != ActionBlock {
			t.Fatalf("action = %q, want block", p.EffectiveAction())
		}
	})

	t.Run("non-bool rule ignored", func(t *testing.T) {
		p, err := Parse([]byte(`{"action":"block","block_force_push":"no"}`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !p.RuleEnabled(gitrules.RuleForcePush) {
			t.Fatal("string value must not disable the rule")
		}
	})

	errCases := []struct {
		name string
		data string
		want error
	}{
		{"array", `[1,2]`, ErrNotObject},
		{"string", `"block"`, ErrNotObject},
		{"foreign object", `{"name":"x"}`, ErrUnrecognizedShape},
		{"safety_net not object", `{"security":{"safety_net":true}}`, ErrUnrecognizedShape},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		if _, err := Parse([]byte(`{"action":`)); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestUnknownRules(t *testing.T) {
	p := Default()
	if got := p.UnknownRules(); len(got) != 0 {
		t.Fatalf("defaults report unknown rules %v", got)
	}
	p.Rules["block_zzz"] = true
	p.Rules["block_aaa"] = false
	got := p.UnknownRules()
	if len(got) != 2 || got[0] != "block_aaa" || got[1] != "block_zzz" {
		t.Fatalf("UnknownRules() = %v", got)
	}
}
