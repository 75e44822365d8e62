package core

// ExitBlock is the process exit status that tells the host to refuse a command.
const ExitBlock = 2

// Kind discriminates verdicts.
type Kind int

const (
	Allow Kind = iota
	Warn
	Block
)

func (k Kind) String() string {
	switch k {
	case Warn:
		return "warn"
	case Block:
		return "block"
	default:
		return "allow"
	}
}

// Verdict is the outcome of checking one command string.
type Verdict struct {
	Kind Kind
	// Reason explains the match and names a safe alternative. Empty for Allow.
	Reason string
	// Rule and Pattern identify what matched. Empty for Allow.
	Rule    string
	Pattern string
	// Warning carries a policy-resolution warning, independent of Kind.
	Warning string
	// PolicySource is the policy file consulted, empty for built-in defaults.
	PolicySource string
	Managed      bool
}

// Message is the text to show the user: the reason, prefixed for warnings.
func (v Verdict) Message() string {
	switch v.Kind {
	case Warn:
		return "WARNING: " + v.Reason
	case Block:
		return v.Reason
	default:
		return ""
	}
}

// ExitCode maps the verdict onto the host's exit-code contract.
func (v Verdict) ExitCode() int {
	if v.Kind == Block {
		return ExitBlock
	}
	return 0
}
