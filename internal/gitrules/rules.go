// Package gitrules classifies git argument vectors as destructive or safe.
package gitrules

// Rule names a destructive-pattern category. The string value is the policy key
// that enables or disables it.
type Rule string

// Destructive-pattern categories.
const (
	RuleForcePush         Rule = "block_force_push"
	RulePushMirror        Rule = "block_push_mirror"
	RuleResetHard         Rule = "block_reset_hard"
	RuleBranchForceDelete Rule = "block_branch_force_delete"
	RuleStashDestructive  Rule = "block_stash_destructive"
	RuleClean             Rule = "block_clean"
	RuleCheckoutRestore   Rule = "block_checkout_restore"
	RuleReflogExpire      Rule = "block_reflog_expire"
	RuleGCPrune           Rule = "block_gc_prune"
	RuleFilterBranch      Rule = "block_filter_branch"
)

// AllRules returns every rule in a fixed display order.
func AllRules() []Rule {
	return []Rule{
		RuleForcePush,
		RulePushMirror,
		RuleResetHard,
		RuleBranchForceDelete,
		RuleCheckoutRestore,
		RuleClean,
		RuleStashDestructive,
		RuleReflogExpire,
		RuleGCPrune,
		RuleFilterBranch,
	}
}

// IsKnownRule reports whether name is one of the rule policy keys.
func IsKnownRule(name string) bool {
	for _, r := range AllRules() {
		if string(r) == name {
			return true
		}
	}
	return false
}

// Finding describes a destructive match.
type Finding struct {
	// Rule is the policy key governing this finding.
	Rule Rule
	// Pattern is a short name for what matched, e.g. "git push --force".
	Pattern string
	// Reason is the human-readable block message with a safe alternative.
	Reason string
}

// Block reasons with safe alternatives.
const (
	msgForcePush = "BLOCKED: Force push destroys remote history.\n\n" +
		"Safe alternative: git push --force-with-lease"
	msgPushMirror = "BLOCKED: git push --mirror overwrites and deletes remote refs.\n\n" +
		"Safe alternative: push specific branches (git push origin <branch>)"
	msgResetHard = "BLOCKED: git reset --hard destroys uncommitted changes.\n\n" +
		"Safe alternative: git stash (preserves changes)"
	msgBranchForceDelete = "BLOCKED: git branch -D force-deletes without merge check.\n\n" +
		"Safe alternative: git branch -d (requires merge check)"
	msgStashDrop = "BLOCKED: git stash drop permanently deletes stash entry.\n\n" +
		"Safe alternative: Review with git stash list first"
	msgStashClear = "BLOCKED: git stash clear permanently deletes ALL stashes.\n\n" +
		"Safe alternative: Review with git stash list first"
	msgCleanForce = "BLOCKED: git clean -f destroys untracked files.\n\n" +
		"Safe alternative: git clean -n (dry-run preview)"
	msgCheckoutPath = "BLOCKED: git checkout -- <path> destroys uncommitted changes.\n\n" +
		"Safe alternative: git stash (preserves changes)"
	msgRestoreWorktree = "BLOCKED: git restore <path> destroys uncommitted changes.\n\n" +
		"Safe alternatives:\n" +
		"  - git stash (preserves changes)\n" +
		"  - git restore --staged <path> (only unstages, doesn't discard)"
	msgReflogExpire = "BLOCKED: git reflog expire --expire=now destroys the recovery log.\n\n" +
		"Safe alternative: let reflog entries age out (default 90 days)"
	msgGCPrune = "BLOCKED: git gc --prune=now permanently deletes unreachable objects.\n\n" +
		"Safe alternative: git gc (default prune grace period)"
	msgFilterBranch = "BLOCKED: git filter-branch rewrites repository history.\n\n" +
		"Safe alternative: rewrite history in a fresh clone and review before pushing"
)

// Entry is one row of the blocked-pattern table shown by status.
type Entry struct {
	Pattern     string
	Alternative string
	Rule        Rule
}

// Blocked returns the blocked-pattern to safe-alternative table.
func Blocked() []Entry {
	return []Entry{
		{"git push --force", "--force-with-lease", RuleForcePush},
		{"git push +refspec", "--force-with-lease", RuleForcePush},
		{"git push --mirror", "push specific branches", RulePushMirror},
		{"git reset --hard", "git stash", RuleResetHard},
		{"git checkout -- *", "git stash", RuleCheckoutRestore},
		{"git restore <path>", "git stash (--staged is allowed)", RuleCheckoutRestore},
		{"git clean -f", "git clean -n (dry-run)", RuleClean},
		{"git branch -D", "git branch -d", RuleBranchForceDelete},
		{"git stash drop", "review with git stash list first", RuleStashDestructive},
		{"git stash clear", "review with git stash list first", RuleStashDestructive},
		{"git reflog expire", "let entries age out", RuleReflogExpire},
		{"git gc --prune=now", "git gc", RuleGCPrune},
		{"git filter-branch", "rewrite in a fresh clone", RuleFilterBranch},
	}
}

// Allowed returns the explicitly allowed exceptions to the blocked patterns.
func Allowed() []string {
	return []string{
		"git push --force-with-lease",
		"git restore --staged <path>",
		"git clean -n/--dry-run",
		"git branch -d",
	}
}
