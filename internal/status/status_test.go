package status

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/scc-safety-net/internal/gitrules"
	"github.com/Dicklesworthstone/scc-safety-net/internal/policy"
)

func TestBuildDefaults(t *testing.T) {
	r := Build(policy.Resolution{Policy: policy.Default()}, "1.2.3")

	if r.Mode != "block" || r.PolicyPath != nil || r.Managed {
		t.Fatalf("unexpected header fields %+v", r)
	}
	if len(r.Rules) != len(gitrules.AllRules()) {
		t.Fatalf("rules has %d entries, want %d", len(r.Rules), len(gitrules.AllRules()))
	}
	for name, enabled := range r.Rules {
		if !enabled {
			t.Fatalf("rule %s disabled under defaults", name)
		}
	}
	if len(r.BlockedCommands) != len(gitrules.Blocked()) {
		t.Fatalf("blocked_commands = %v", r.BlockedCommands)
	}
	if r.SafeAlternatives["git reset --hard"] != "git stash" {
		t.Fatalf("safe_alternatives = %v", r.SafeAlternatives)
	}
	if len(r.AllowedCommands) == 0 {
		t.Fatal("allowed_commands empty")
	}
}

func TestBuildFromPolicyFile(t *testing.T) {
	p := policy.Default()
	p.Action = policy.ActionWarn
	p.Rules[string(gitrules.RuleResetHard)] = false
	r := Build(policy.Resolution{Policy: p, Source: "/etc/scc/policy.json", Managed: true, Warning: "w"}, "0.1.0")

	if r.Mode != "warn" || r.ModeLabel() != "WARN" {
		t.Fatalf("mode = %q label = %q", r.Mode, r.ModeLabel())
	}
	if r.PolicyPath == nil || *r.PolicyPath != "/etc/scc/policy.json" {
		t.Fatalf("policy_path = %v", r.PolicyPath)
	}
	if r.Rules[string(gitrules.RuleResetHard)] {
		t.Fatal("reset rule should be disabled")
	}
}

func TestReportJSON(t *testing.T) {
	data, err := json.Marshal(Build(policy.Resolution{Policy: policy.Default()}, "1.0.0"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"version", "mode", "managed", "policy_path", "rules", "blocked_commands", "safe_alternatives", "allowed_commands"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	if m["policy_path"] != nil {
		t.Fatalf("policy_path = %v, want null", m["policy_path"])
	}
	if _, ok := m["warning"]; ok {
		t.Fatal("empty warning should be omitted")
	}
}

func TestRenderTextPlain(t *testing.T) {
	p := policy.Default()
	p.Rules[string(gitrules.RuleClean)] = false
	r := Build(policy.Resolution{Policy: p, Warning: "untrusted policy ignored"}, "2.0.0")
	out := r.Text()

	for _, want := range []string{
		"SCC Safety Net v2.0.0",
		strings.Repeat("━", 45),
		"Mode: BLOCK (default)",
		"Policy: built-in defaults",
		"Warning: untrusted policy ignored",
		"Blocked Operations:",
		"  ❌ git reset --hard     → use git stash",
		"git clean -f",
		"(disabled)",
		"Allowed:",
		"  ✅ git push --force-with-lease",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("plain output contains escape sequences")
	}
}

func TestRenderTextDecodedReport(t *testing.T) {
	data, err := json.Marshal(Build(policy.Resolution{Policy: policy.Default()}, "1.0.0"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !strings.Contains(r.Text(), "git push --mirror") {
		t.Fatalf("decoded report lost catalog:\n%s", r.Text())
	}
}

func TestShouldStyle(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		color string
		want  bool
	}{
		{"always", true},
		{"never", false},
		{"auto", false},
	}
	for _, tc := range tests {
		t.Run(tc.color, func(t *testing.T) {
			if got := ShouldStyle(tc.color, &buf); got != tc.want {
				t.Fatalf("ShouldStyle(%q) = %v, want %v", tc.color, got, tc.want)
			}
		})
	}
}

func TestWatchReportsPolicyChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "effective_policy.json")
	other := filepath.Join(dir, "unrelated.json")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{target}, WatchOptions{Debounce: time.Millisecond}, func(p string) {
			select {
			case changed <- p:
			default:
			}
		})
	}()

	// Keep writing until the watcher has registered and reports.
	deadline := time.After(4 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if err := os.WriteFile(other, []byte("{}"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := os.WriteFile(target, []byte(`{"action":"warn"}`), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		select {
		case p := <-changed:
			if p != target {
				t.Fatalf("changed %q, want %q", p, target)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch: %v", err)
			}
			return
		case <-tick.C:
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}

func TestWatchNoDirectories(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone", "policy.json")
	if err := Watch(context.Background(), []string{missing}, WatchOptions{}, func(string) {}); err == nil {
		t.Fatal("expected error when no directory can be watched")
	}
}
