package policy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Environment variables read by the resolver.
const (
	EnvPolicyPath = "SCC_POLICY_PATH"
	EnvManaged    = "SCC_MANAGED"
)

// Default candidate locations.
const (
	DefaultWorkspacePath = ".scc/effective_policy.json"
	defaultCacheRelPath  = ".cache/scc/org_config.json"
)

// Resolution is the outcome of one policy lookup.
type Resolution struct {
	Policy Policy
	// Source is the file the policy came from, empty for built-in defaults.
	Source string
	// Managed is true when SCC_MANAGED=1 restricted the lookup to one path.
	Managed bool
	// Warning explains a fallback to defaults that the user should see.
	Warning string
}

// UsingDefaults reports whether the built-in policy is in effect.
func (r Resolution) UsingDefaults() bool {
	return r.Source == ""
}

// Resolver locates and loads the effective policy. The zero value reads the
// process environment and the default locations relative to the working
// directory. A Resolver is read-only and safe for concurrent use.
type Resolver struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// ProjectDir anchors a relative WorkspacePath. Empty means the working directory.
	ProjectDir string
	// WorkspacePath overrides DefaultWorkspacePath.
	WorkspacePath string
	// CachePath overrides ~/.cache/scc/org_config.json.
	CachePath string
	Logger    *log.Logger
}

func (r *Resolver) lookupEnv(key string) (string, bool) {
	if r.LookupEnv != nil {
		return r.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.New(io.Discard)
}

// Managed reports whether managed mode is on. Only the exact value "1" counts.
func (r *Resolver) Managed() bool {
	v, _ := r.lookupEnv(EnvManaged)
	return v == "1"
}

func (r *Resolver) overridePath() string {
	v, ok := r.lookupEnv(EnvPolicyPath)
	if !ok {
		return ""
	}
	return v
}

func (r *Resolver) workspacePath() string {
	path := r.WorkspacePath
	if path == "" {
		path = DefaultWorkspacePath
	}
	if filepath.IsAbs(path) || r.ProjectDir == "" {
		return path
	}
	return filepath.Join(r.ProjectDir, path)
}

func (r *Resolver) cachePath() string {
	if r.CachePath != "" {
		return r.CachePath
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, defaultCacheRelPath)
}

// Candidates returns the policy locations in trust order. In managed mode only
// the designated path is listed.
func (r *Resolver) Candidates() []string {
	if r.Managed() {
		if p := r.overridePath(); p != "" {
			return []string{p}
		}
		return nil
	}

	var paths []string
	for _, p := range []string{r.overridePath(), r.workspacePath(), r.cachePath()} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Resolve loads the effective policy. It never fails: every problem resolves
// to Default, with a Warning when the problem is worth reporting.
func (r *Resolver) Resolve() Resolution {
	if r.Managed() {
		return r.resolveManaged()
	}
	return r.resolveStandard()
}

func (r *Resolver) resolveManaged() Resolution {
	res := Resolution{Policy: Default(), Managed: true}

	path := r.overridePath()
	if path == "" {
		res.Warning = fmt.Sprintf("%s=1 but %s not set; using built-in defaults", EnvManaged, EnvPolicyPath)
		return res
	}

	data, err := readValidated(path)
	if err != nil {
		res.Warning = fmt.Sprintf("managed policy rejected: %v; using built-in defaults", err)
		return res
	}
	p, err := Parse(data)
	if err != nil {
		res.Warning = fmt.Sprintf("managed policy %s invalid: %v; using built-in defaults", path, err)
		return res
	}

	r.warnUnknownRules(p, path)
	res.Policy = p
	res.Source = path
	return res
}

func (r *Resolver) warnUnknownRules(p Policy, path string) {
	for _, name := range p.UnknownRules() {
		r.logger().Warn("unknown policy rule ignored", "rule", name, "path", path)
	}
}

func (r *Resolver) resolveStandard() Resolution {
	logger := r.logger()

	var rejected []string
	for _, path := range r.Candidates() {
		if err := ValidateFile(path); err != nil {
			if !errors.Is(err, ErrNotFound) {
				logger.Debug("skipping policy candidate", "path", path, "err", err)
				rejected = append(rejected, err.Error())
			}
			continue
		}

		data, err := readValidated(path)
		if err != nil {
			return Resolution{
				Policy:  Default(),
				Warning: fmt.Sprintf("policy %s unreadable: %v; using built-in defaults", path, err),
			}
		}
		p, err := Parse(data)
		if err != nil {
			return Resolution{
				Policy:  Default(),
				Warning: fmt.Sprintf("policy %s invalid: %v; using built-in defaults", path, err),
			}
		}
		logger.Debug("policy resolved", "path", path, "action", p.EffectiveAction())
		r.warnUnknownRules(p, path)
		return Resolution{Policy: p, Source: path}
	}

	// No candidate at all is the normal case. Files that exist but were
	// rejected are reported.
	res := Resolution{Policy: Default()}
	if len(rejected) > 0 {
		res.Warning = fmt.Sprintf("untrusted policy ignored: %s; using built-in defaults", strings.Join(rejected, "; "))
	}
	return res
}
