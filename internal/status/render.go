package status

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const ruleWidth = 45

// RenderText formats r for humans. styled adds colors from the Mocha theme.
func RenderText(r Report, styled bool) string {
	t := Mocha()
	s := newStyles(t, styled)

	var b strings.Builder
	fmt.Fprintln(&b, s.title.Render("SCC Safety Net v"+r.Version))
	fmt.Fprintln(&b, s.rule.Render(strings.Repeat("━", ruleWidth)))
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Mode:"), s.modeBadge(t, r.Mode, styled, r.ModeLabel()))
	policyLine := r.PolicyLabel()
	if r.Managed {
		policyLine += " (managed)"
	}
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Policy:"), s.value.Render(policyLine))
	if r.Warning != "" {
		fmt.Fprintln(&b, s.warning.Render("Warning: "+r.Warning))
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, s.heading.Render("Blocked Operations:"))
	for _, e := range r.entries() {
		line := fmt.Sprintf("%-20s → use %s", e.Pattern, e.Alternative)
		if !r.ruleEnabled(e.Rule) {
			fmt.Fprintf(&b, "  ➖ %s %s\n", s.disabled.Render(line), s.hint.Render("(disabled)"))
			continue
		}
		fmt.Fprintf(&b, "  ❌ %s\n", s.blocked.Render(line))
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, s.heading.Render("Allowed:"))
	for _, cmd := range r.AllowedCommands {
		fmt.Fprintf(&b, "  ✅ %s\n", s.allowed.Render(cmd))
	}
	return b.String()
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ShouldStyle resolves the output.color setting ("auto", "always", "never")
// for w. NO_COLOR disables auto.
func ShouldStyle(color string, w io.Writer) bool {
	switch color {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return IsTerminal(w)
}
