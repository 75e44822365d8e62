package gitrules

import (
	"slices"
	"strings"
)

// Invocation is a git call with global options removed.
type Invocation struct {
	Subcommand string
	Args       []string
}

// Git global options that take a separate value.
var globalOptionsWithValue = map[string]bool{
	"-C":          true,
	"-c":          true,
	"--git-dir":   true,
	"--work-tree": true,
}

// Git global options written as flag=value.
var globalOptionsCombined = []string{"--git-dir=", "--work-tree="}

// Normalize locates the git subcommand and its arguments, skipping global
// options such as -C <dir> and --git-dir=<path>. The zero Invocation is returned
// when tokens are not a git call or no subcommand remains.
func Normalize(tokens []string) Invocation {
	if len(tokens) == 0 || baseName(tokens[0]) != "git" {
		return Invocation{}
	}

	i := 1
	for i < len(tokens) {
		tok := tokens[i]
		if globalOptionsWithValue[tok] {
			i += 2
			continue
		}
		if hasAnyPrefix(tok, globalOptionsCombined) {
			i++
			continue
		}
		break
	}
	if i >= len(tokens) {
		return Invocation{}
	}
	return Invocation{Subcommand: tokens[i], Args: tokens[i+1:]}
}

// Subcommand is the closed set of git subcommands with rules attached.
type Subcommand int

// Supported subcommands. SubcommandUnknown carries no rule.
const (
	SubcommandUnknown Subcommand = iota
	SubcommandPush
	SubcommandReset
	SubcommandBranch
	SubcommandStash
	SubcommandClean
	SubcommandCheckout
	SubcommandRestore
	SubcommandReflog
	SubcommandGC
	SubcommandFilterBranch
)

// ParseSubcommand maps a git subcommand name onto the closed set.
func ParseSubcommand(name string) Subcommand {
	switch name {
	case "push":
		return SubcommandPush
	case "reset":
		return SubcommandReset
	case "branch":
		return SubcommandBranch
	case "stash":
		return SubcommandStash
	case "clean":
		return SubcommandClean
	case "checkout":
		return SubcommandCheckout
	case "restore":
		return SubcommandRestore
	case "reflog":
		return SubcommandReflog
	case "gc":
		return SubcommandGC
	case "filter-branch":
		return SubcommandFilterBranch
	default:
		return SubcommandUnknown
	}
}

// String returns the git name of the subcommand.
func (s Subcommand) String() string {
	switch s {
	case SubcommandPush:
		return "push"
	case SubcommandReset:
		return "reset"
	case SubcommandBranch:
		return "branch"
	case SubcommandStash:
		return "stash"
	case SubcommandClean:
		return "clean"
	case SubcommandCheckout:
		return "checkout"
	case SubcommandRestore:
		return "restore"
	case SubcommandReflog:
		return "reflog"
	case SubcommandGC:
		return "gc"
	case SubcommandFilterBranch:
		return "filter-branch"
	default:
		return "unknown"
	}
}

// Analyze classifies the subcommand's arguments.
func (s Subcommand) Analyze(args []string) (Finding, bool) {
	switch s {
	case SubcommandPush:
		return analyzePush(args)
	case SubcommandReset:
		return analyzeReset(args)
	case SubcommandBranch:
		return analyzeBranch(args)
	case SubcommandStash:
		return analyzeStash(args)
	case SubcommandClean:
		return analyzeClean(args)
	case SubcommandCheckout:
		return analyzeCheckout(args)
	case SubcommandRestore:
		return analyzeRestore(args)
	case SubcommandReflog:
		return analyzeReflog(args)
	case SubcommandGC:
		return analyzeGC(args)
	case SubcommandFilterBranch:
		return Finding{Rule: RuleFilterBranch, Pattern: "git filter-branch", Reason: msgFilterBranch}, true
	case SubcommandUnknown:
		return Finding{}, false
	}
	return Finding{}, false
}

// Analyze classifies a token vector. It returns a finding when the vector is a
// destructive git invocation; anything else, including unknown subcommands,
// is allowed.
func Analyze(tokens []string) (Finding, bool) {
	inv := Normalize(tokens)
	if inv.Subcommand == "" {
		return Finding{}, false
	}
	return ParseSubcommand(inv.Subcommand).Analyze(inv.Args)
}

// hasForceFlag detects -f, --force, or a short-option cluster containing f
// (-xfd). Only push, clean and branch use it: other subcommands give -f
// unrelated meanings.
func hasForceFlag(args []string) bool {
	for _, tok := range args {
		if tok == "-f" || tok == "--force" {
			return true
		}
		if isShortCluster(tok) && strings.Contains(tok, "f") {
			return true
		}
	}
	return false
}

// hasForceRefspec detects +refspec and ref:+ref force-push forms.
func hasForceRefspec(args []string) bool {
	for _, tok := range args {
		if strings.HasPrefix(tok, "-") {
			continue
		}
		if strings.HasPrefix(tok, "+") && !strings.HasPrefix(tok, "++") {
			return true
		}
		if strings.Contains(tok, ":+") {
			return true
		}
	}
	return false
}

func analyzePush(args []string) (Finding, bool) {
	for _, tok := range args {
		if strings.HasPrefix(tok, "--force-with-lease") {
			return Finding{}, false
		}
	}
	if hasForceFlag(args) {
		return Finding{Rule: RuleForcePush, Pattern: "git push --force", Reason: msgForcePush}, true
	}
	if hasForceRefspec(args) {
		return Finding{Rule: RuleForcePush, Pattern: "git push +refspec", Reason: msgForcePush}, true
	}
	if slices.Contains(args, "--mirror") {
		return Finding{Rule: RulePushMirror, Pattern: "git push --mirror", Reason: msgPushMirror}, true
	}
	return Finding{}, false
}

func analyzeReset(args []string) (Finding, bool) {
	if slices.Contains(args, "--hard") {
		return Finding{Rule: RuleResetHard, Pattern: "git reset --hard", Reason: msgResetHard}, true
	}
	return Finding{}, false
}

func analyzeBranch(args []string) (Finding, bool) {
	found := Finding{Rule: RuleBranchForceDelete, Pattern: "git branch -D", Reason: msgBranchForceDelete}
	if slices.Contains(args, "-D") {
		return found, true
	}

	hasDelete := false
	for _, tok := range args {
		if tok == "--delete" || (isShortCluster(tok) && strings.ContainsAny(tok, "dD")) {
			hasDelete = true
			break
		}
	}
	if hasDelete && hasForceFlag(args) {
		return found, true
	}
	return Finding{}, false
}

func analyzeStash(args []string) (Finding, bool) {
	switch firstOperand(args) {
	case "drop":
		return Finding{Rule: RuleStashDestructive, Pattern: "git stash drop", Reason: msgStashDrop}, true
	case "clear":
		return Finding{Rule: RuleStashDestructive, Pattern: "git stash clear", Reason: msgStashClear}, true
	}
	return Finding{}, false
}

func analyzeClean(args []string) (Finding, bool) {
	// Dry-run wins even alongside a force flag.
	if slices.Contains(args, "-n") || slices.Contains(args, "--dry-run") {
		return Finding{}, false
	}
	if hasForceFlag(args) {
		return Finding{Rule: RuleClean, Pattern: "git clean -f", Reason: msgCleanForce}, true
	}
	return Finding{}, false
}

func analyzeCheckout(args []string) (Finding, bool) {
	idx := slices.Index(args, "--")
	if idx >= 0 && idx < len(args)-1 {
		return Finding{Rule: RuleCheckoutRestore, Pattern: "git checkout -- <path>", Reason: msgCheckoutPath}, true
	}
	return Finding{}, false
}

func analyzeRestore(args []string) (Finding, bool) {
	hasStaged := slices.Contains(args, "--staged") || slices.Contains(args, "-S")
	hasWorktree := slices.Contains(args, "--worktree") || slices.Contains(args, "-W")
	if hasStaged && !hasWorktree {
		return Finding{}, false
	}
	if firstOperand(args) != "" {
		return Finding{Rule: RuleCheckoutRestore, Pattern: "git restore <path>", Reason: msgRestoreWorktree}, true
	}
	return Finding{}, false
}

var reflogExpireNow = []string{
	"--expire=now",
	"--expire=all",
	"--expire-unreachable=now",
	"--expire-unreachable=all",
}

func analyzeReflog(args []string) (Finding, bool) {
	if firstOperand(args) != "expire" {
		return Finding{}, false
	}
	for _, tok := range args {
		if slices.Contains(reflogExpireNow, tok) {
			return Finding{Rule: RuleReflogExpire, Pattern: "git reflog expire", Reason: msgReflogExpire}, true
		}
	}
	return Finding{}, false
}

func analyzeGC(args []string) (Finding, bool) {
	if slices.Contains(args, "--prune=now") || slices.Contains(args, "--prune=all") {
		return Finding{Rule: RuleGCPrune, Pattern: "git gc --prune=now", Reason: msgGCPrune}, true
	}
	return Finding{}, false
}

// firstOperand returns the first argument that is not a flag.
func firstOperand(args []string) string {
	for _, tok := range args {
		if !strings.HasPrefix(tok, "-") {
			return tok
		}
	}
	return ""
}

// isShortCluster reports whether tok is a short option or cluster (-x, -xfd).
func isShortCluster(tok string) bool {
	return strings.HasPrefix(tok, "-") && !strings.HasPrefix(tok, "--")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func baseName(token string) string {
	if idx := strings.LastIndex(token, "/"); idx >= 0 {
		return token[idx+1:]
	}
	return token
}
