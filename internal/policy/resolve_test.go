package policy

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/scc-safety-net/internal/gitrules"
)

func envMap(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writePolicy(t *testing.T, path, content string, perm os.FileMode) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	return path
}

// isolated returns a resolver whose candidates all live under a temp dir.
func isolated(t *testing.T, env map[string]string) (*Resolver, string) {
	t.Helper()
	dir := t.TempDir()
	return &Resolver{
		LookupEnv:  envMap(env),
		ProjectDir: dir,
		CachePath:  filepath.Join(dir, "cache", "org_config.json"),
	}, dir
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := writePolicy(t, filepath.Join(dir, "good.json"), `{}`, 0o644)

	if err := ValidateFile(good); err != nil {
		t.Fatalf("ValidateFile(good) = %v", err)
	}

	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(good, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	big := filepath.Join(dir, "big.json")
	if err := os.WriteFile(big, []byte(strings.Repeat(" ", MaxPolicySize+1)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		want    error
		message string
	}{
		{"symlink", link, ErrSymlink, "symlink"},
		{"directory", dir, ErrNotRegular, "not a regular file"},
		{"world writable", writePolicy(t, filepath.Join(dir, "ww.json"), `{}`, 0o646), ErrUnsafePermissions, "unsafe permissions"},
		{"group writable", writePolicy(t, filepath.Join(dir, "gw.json"), `{}`, 0o664), ErrUnsafePermissions, "unsafe permissions"},
		{"too large", big, ErrTooLarge, "too large"},
		{"missing", filepath.Join(dir, "nope.json"), ErrNotFound, "not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFile(tc.path)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			var ie *IntegrityError
			if !errors.As(err, &ie) || ie.Path != tc.path {
				t.Fatalf("expected IntegrityError for %s, got %#v", tc.path, err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("message %q lacks %q", err.Error(), tc.message)
			}
		})
	}
}

func TestResolveStandard(t *testing.T) {
	t.Run("no files gives silent defaults", func(t *testing.T) {
		r, _ := isolated(t, nil)
		res := r.Resolve()
		if !res.UsingDefaults() || res.Warning != "" || res.Managed {
			t.Fatalf("got %+v", res)
		}
		if res.Policy.EffectiveAction() != ActionBlock {
			t.Fatalf("action = %q", res.Policy.EffectiveAction())
		}
	})

	t.Run("override beats workspace", func(t *testing.T) {
		dir := t.TempDir()
		override := writePolicy(t, filepath.Join(dir, "override.json"), `{"action":"warn"}`, 0o644)
		r, project := isolated(t, map[string]string{EnvPolicyPath: override})
		writePolicy(t, filepath.Join(project, DefaultWorkspacePath), `{"action":"allow"}`, 0o644)

		res := r.Resolve()
		if res.Source != override || res.Policy.EffectiveAction() != ActionWarn {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("unknown rule keys are logged", func(t *testing.T) {
		r, project := isolated(t, nil)
		var buf bytes.Buffer
		r.Logger = log.New(&buf)
		writePolicy(t, filepath.Join(project, DefaultWorkspacePath), `{"action":"warn","block_force_pushh":false}`, 0o644)

		res := r.Resolve()
		if res.Policy.EffectiveAction() != ActionWarn || !res.Policy.RuleEnabled(gitrules.RuleForcePush) {
			t.Fatalf("got %+v", res)
		}
		if !strings.Contains(buf.String(), "unknown policy rule ignored") || !strings.Contains(buf.String(), "block_force_pushh") {
			t.Fatalf("log = %q", buf.String())
		}
	})

	t.Run("workspace beats cache", func(t *testing.T) {
		r, project := isolated(t, nil)
		ws := writePolicy(t, filepath.Join(project, DefaultWorkspacePath), `{"action":"warn"}`, 0o644)
		writePolicy(t, r.CachePath, `{"action":"allow"}`, 0o644)

		res := r.Resolve()
		if res.Source != ws {
			t.Fatalf("Source = %q, want %q", res.Source, ws)
		}
	})

	t.Run("cache nested form", func(t *testing.T) {
		r, _ := isolated(t, nil)
		writePolicy(t, r.CachePath, `{"security":{"safety_net":{"action":"warn","block_clean":false}}}`, 0o644)

		res := r.Resolve()
		if res.Source != r.CachePath || res.Policy.EffectiveAction() != ActionWarn {
			t.Fatalf("got %+v", res)
		}
		if res.Policy.RuleEnabled(gitrules.RuleClean) {
			t.Fatal("block_clean should be disabled")
		}
	})

	t.Run("unsafe candidate is skipped", func(t *testing.T) {
		r, project := isolated(t, nil)
		writePolicy(t, filepath.Join(project, DefaultWorkspacePath), `{"action":"allow"}`, 0o666)
		writePolicy(t, r.CachePath, `{"action":"warn"}`, 0o600)

		res := r.Resolve()
		if res.Source != r.CachePath || res.Policy.EffectiveAction() != ActionWarn || res.Warning != "" {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("only unsafe candidates gives defaults with warning", func(t *testing.T) {
		r, project := isolated(t, nil)
		writePolicy(t, filepath.Join(project, DefaultWorkspacePath), `{"action":"allow"}`, 0o666)

		res := r.Resolve()
		if !res.UsingDefaults() || !strings.Contains(res.Warning, "unsafe permissions") {
			t.Fatalf("got %+v", res)
		}
		if res.Policy.EffectiveAction() != ActionBlock {
			t.Fatal("world-writable allow policy must not be trusted")
		}
	})

	t.Run("corrupt chosen file gives defaults with warning", func(t *testing.T) {
		r, project := isolated(t, nil)
		writePolicy(t, filepath.Join(project, DefaultWorkspacePath), `{"action": allow}`, 0o644)

		res := r.Resolve()
		if !res.UsingDefaults() || res.Warning == "" {
			t.Fatalf("got %+v", res)
		}
		if res.Policy.EffectiveAction() != ActionBlock {
			t.Fatal("corrupt policy must fall back to block")
		}
	})

	t.Run("managed flag must be exactly 1", func(t *testing.T) {
		r, _ := isolated(t, map[string]string{EnvManaged: "true"})
		if r.Managed() {
			t.Fatal("SCC_MANAGED=true must not enable managed mode")
		}
	})
}

func TestResolveManaged(t *testing.T) {
	t.Run("path unset", func(t *testing.T) {
		r, project := isolated(t, map[string]string{EnvManaged: "1"})
		writePolicy(t, filepath.Join(project, DefaultWorkspacePath), `{"action":"allow"}`, 0o644)

		res := r.Resolve()
		if !res.Managed || !res.UsingDefaults() {
			t.Fatalf("got %+v", res)
		}
		if !strings.Contains(res.Warning, "SCC_POLICY_PATH not set") {
			t.Fatalf("warning = %q", res.Warning)
		}
		if len(r.Candidates()) != 0 {
			t.Fatalf("Candidates() = %v, want none", r.Candidates())
		}
	})

	t.Run("valid designated file", func(t *testing.T) {
		dir := t.TempDir()
		path := writePolicy(t, filepath.Join(dir, "managed.json"), `{"action":"warn"}`, 0o644)
		r, _ := isolated(t, map[string]string{EnvManaged: "1", EnvPolicyPath: path})

		res := r.Resolve()
		if res.Source != path || res.Warning != "" || res.Policy.EffectiveAction() != ActionWarn {
			t.Fatalf("got %+v", res)
		}
	})

	dir := t.TempDir()
	target := writePolicy(t, filepath.Join(dir, "target.json"), `{"action":"allow"}`, 0o644)
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	big := filepath.Join(dir, "big.json")
	if err := os.WriteFile(big, []byte(`{"action":"allow"}`+strings.Repeat(" ", MaxPolicySize)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	failures := []struct {
		name string
		path string
		want string
	}{
		{"missing", filepath.Join(dir, "missing.json"), "not found"},
		{"symlink", link, "symlink"},
		{"directory", dir, "not a regular file"},
		{"world writable", writePolicy(t, filepath.Join(dir, "ww.json"), `{"action":"allow"}`, 0o646), "unsafe permissions"},
		{"group writable", writePolicy(t, filepath.Join(dir, "gw.json"), `{"action":"allow"}`, 0o664), "unsafe permissions"},
		{"too large", big, "too large"},
		{"not a policy", writePolicy(t, filepath.Join(dir, "foreign.json"), `{"name":"x"}`, 0o644), "invalid"},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := isolated(t, map[string]string{EnvManaged: "1", EnvPolicyPath: tc.path})
			res := r.Resolve()
			if !res.UsingDefaults() {
				t.Fatalf("Source = %q, want defaults", res.Source)
			}
			if res.Policy.EffectiveAction() != ActionBlock {
				t.Fatalf("action = %q, want block", res.Policy.EffectiveAction())
			}
			if !strings.Contains(res.Warning, tc.want) {
				t.Fatalf("warning %q lacks %q", res.Warning, tc.want)
			}
		})
	}
}

func TestCandidatesOrder(t *testing.T) {
	r, project := isolated(t, map[string]string{EnvPolicyPath: "/etc/scc/policy.json"})
	got := r.Candidates()
	want := []string{
		"/etc/scc/policy.json",
		filepath.Join(project, DefaultWorkspacePath),
		r.CachePath,
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Candidates() = %v, want %v", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := writePolicy(t, filepath.Join(dir, "good.json"), `{"action":"warn","block_clean":false}`, 0o600)
	p, err := LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.Action != ActionWarn || p.RuleEnabled(gitrules.RuleClean) {
		t.Fatalf("unexpected policy %+v", p)
	}

	open := writePolicy(t, filepath.Join(dir, "open.json"), `{"action":"allow"}`, 0o666)
	if _, err := LoadFile(open); !errors.Is(err, ErrUnsafePermissions) {
		t.Fatalf("expected ErrUnsafePermissions, got %v", err)
	}

	bad := writePolicy(t, filepath.Join(dir, "bad.json"), `[1]`, 0o600)
	if _, err := LoadFile(bad); err == nil {
		t.Fatal("expected parse error")
	}
}
