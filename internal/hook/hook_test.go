package hook

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/scc-safety-net/internal/core"
	"github.com/Dicklesworthstone/scc-safety-net/internal/db"
	"github.com/Dicklesworthstone/scc-safety-net/internal/policy"
)

type fixedSource policy.Resolution

func (s fixedSource) Resolve() policy.Resolution { return policy.Resolution(s) }

func checker(action policy.Action, warning string) *core.Checker {
	p := policy.Default()
	p.Action = action
	return core.NewChecker(fixedSource{Policy: p, Warning: warning}, nil)
}

func run(t *testing.T, stdin string, opts Options) (int, string) {
	t.Helper()
	var stderr bytes.Buffer
	code := Run(context.Background(), strings.NewReader(stdin), &stderr, opts)
	return code, stderr.String()
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		stdin      string
		action     policy.Action
		wantCode   int
		wantStderr string
	}{
		{"block", `{"tool_name":"Bash","tool_input":{"command":"git push --force"}}`, policy.ActionBlock, 2, "BLOCKED: "},
		{"allow", `{"tool_name":"Bash","tool_input":{"command":"git status"}}`, policy.ActionBlock, 0, ""},
		{"warn", `{"tool_name":"Bash","tool_input":{"command":"git reset --hard"}}`, policy.ActionWarn, 0, "WARNING: BLOCKED: "},
		{"allow action", `{"tool_name":"Bash","tool_input":{"command":"git reset --hard"}}`, policy.ActionAllow, 0, ""},
		{"other tool", `{"tool_name":"Edit","tool_input":{"command":"git push --force"}}`, policy.ActionBlock, 0, ""},
		{"non-object input", `{"tool_name":"Bash","tool_input":"git push --force"}`, policy.ActionBlock, 0, ""},
		{"missing input", `{"tool_name":"Bash"}`, policy.ActionBlock, 0, ""},
		{"empty command", `{"tool_name":"Bash","tool_input":{"command":""}}`, policy.ActionBlock, 0, ""},
		{"non-string command", `{"tool_name":"Bash","tool_input":{"command":42}}`, policy.ActionBlock, 0, ""},
		{"invalid json", `{not json`, policy.ActionBlock, 0, "scc-safety-net: Invalid JSON input: "},
		{"empty stdin", ``, policy.ActionBlock, 0, "scc-safety-net: Invalid JSON input: "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, stderr := run(t, tc.stdin, Options{Checker: checker(tc.action, "")})
			if code != tc.wantCode {
				t.Fatalf("exit code = %d, want %d (stderr %q)", code, tc.wantCode, stderr)
			}
			if tc.wantStderr == "" && stderr != "" {
				t.Fatalf("unexpected stderr %q", stderr)
			}
			if !strings.HasPrefix(stderr, tc.wantStderr) {
				t.Fatalf("stderr %q, want prefix %q", stderr, tc.wantStderr)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestRunReadError(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), failingReader{}, &stderr, Options{Checker: checker(policy.ActionBlock, "")})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if got := stderr.String(); got != "scc-safety-net: Error reading input: boom\n" {
		t.Fatalf("stderr = %q", got)
	}
}

func TestRunPolicyWarning(t *testing.T) {
	opts := Options{Checker: checker(policy.ActionBlock, "managed policy rejected")}

	code, stderr := run(t, `{"tool_name":"Bash","tool_input":{"command":"ls"}}`, opts)
	if code != 0 || stderr != "scc-safety-net: managed policy rejected\n" {
		t.Fatalf("allow: code=%d stderr=%q", code, stderr)
	}

	code, stderr = run(t, `{"tool_name":"Bash","tool_input":{"command":"git clean -f"}}`, opts)
	if code != 2 {
		t.Fatalf("block: code=%d", code)
	}
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[0], "scc-safety-net: ") || !strings.HasPrefix(lines[1], "BLOCKED: ") {
		t.Fatalf("stderr = %q", stderr)
	}
}

type bracket struct{}

func (bracket) Sanitize(text string) string { return "[" + text + "]" }

func TestRunSanitizesOutput(t *testing.T) {
	opts := Options{Checker: checker(policy.ActionBlock, ""), Sanitizer: bracket{}}
	_, stderr := run(t, `{"tool_name":"Bash","tool_input":{"command":"git push -f"}}`, opts)
	if !strings.HasPrefix(stderr, "[BLOCKED: ") {
		t.Fatalf("sanitizer not applied: %q", stderr)
	}
}

func TestRunDefaultSanitizerTruncates(t *testing.T) {
	opts := Options{Checker: checker(policy.ActionBlock, strings.Repeat("w", 500))}
	_, stderr := run(t, `{"tool_name":"Bash","tool_input":{"command":"ls"}}`, opts)
	if !strings.HasSuffix(strings.TrimSpace(stderr), "...") {
		t.Fatalf("expected truncated warning, got %d bytes", len(stderr))
	}
}

func TestRunRecordsDecisions(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	opts := Options{Checker: checker(policy.ActionBlock, ""), Recorder: store}
	run(t, `{"tool_name":"Bash","tool_input":{"command":"git status"}}`, opts)
	run(t, `{"tool_name":"Bash","session_id":"s1","cwd":"/repo","tool_input":{"command":"env API_KEY=abc123def456 git push --force"}}`, opts)

	got, err := store.ListDecisions(db.DecisionFilter{})
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("recorded %d decisions, want 1", len(got))
	}
	d := got[0]
	if d.Kind != db.DecisionKindBlock || d.Rule != "block_force_push" || d.SessionID != "s1" || d.CWD != "/repo" {
		t.Fatalf("unexpected decision %+v", d)
	}
	if strings.Contains(d.Command, "abc123def456") {
		t.Fatalf("secret stored in history: %q", d.Command)
	}
}

type brokenRecorder struct{}

func (brokenRecorder) RecordDecisionContext(context.Context, *db.Decision) error {
	return errors.New("disk full")
}

func TestRunRecorderFailureIsNotFatal(t *testing.T) {
	opts := Options{Checker: checker(policy.ActionBlock, ""), Recorder: brokenRecorder{}}
	code, _ := run(t, `{"tool_name":"Bash","tool_input":{"command":"git push -f"}}`, opts)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestInputCommand(t *testing.T) {
	in, err := ParseInput([]byte(`{"tool_name":"Bash","tool_input":{"command":"ls","description":"list"}}`))
	if err != nil {
		t.Fatalf("ParseInput: %v", err)
	}
	if in.Command() != "ls" {
		t.Fatalf("Command() = %q", in.Command())
	}
	if (&Input{ToolInput: []byte(`[1,2]`)}).Command() != "" {
		t.Fatal("array tool_input should yield no command")
	}
}
