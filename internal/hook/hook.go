// Package hook adapts the host's pre-tool-use protocol to the decision core.
//
// The host writes one JSON object to stdin, reads diagnostics from stderr and
// treats exit status 2 as "refuse this command". Every other failure mode in
// here ends in exit status 0.
package hook

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/scc-safety-net/internal/core"
	"github.com/Dicklesworthstone/scc-safety-net/internal/db"
	"github.com/Dicklesworthstone/scc-safety-net/internal/redact"
)

// ToolBash is the only tool whose input is inspected.
const ToolBash = "Bash"

// MaxInputSize caps how much of stdin is read.
const MaxInputSize = 10 << 20

const diagPrefix = "scc-safety-net: "

// Input is the hook payload.
type Input struct {
	ToolName  string          `json:"tool_name"`
	ToolInput json.RawMessage `json:"tool_input"`
	CWD       string          `json:"cwd,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
}

// Command returns tool_input.command, or "" when tool_input is not an object
// or the command is missing or not a string.
func (in *Input) Command() string {
	if len(in.ToolInput) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(in.ToolInput, &obj); err != nil {
		return ""
	}
	cmd, _ := obj["command"].(string)
	return cmd
}

// ParseInput decodes a hook payload.
func ParseInput(data []byte) (*Input, error) {
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Checker decides a command. *core.Checker implements it.
type Checker interface {
	Check(command string) core.Verdict
}

// Sanitizer scrubs text before it reaches the diagnostic stream.
type Sanitizer interface {
	Sanitize(text string) string
}

// Recorder persists warn and block verdicts. *db.DB implements it.
type Recorder interface {
	RecordDecisionContext(ctx context.Context, d *db.Decision) error
}

// Options wires Run to its collaborators.
type Options struct {
	Checker   Checker
	Sanitizer Sanitizer
	// Recorder is optional; nil disables history.
	Recorder Recorder
	Logger   *log.Logger
}

// Run handles one hook invocation and returns the process exit status.
func Run(ctx context.Context, stdin io.Reader, stderr io.Writer, opts Options) int {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	sanitizer := opts.Sanitizer
	if sanitizer == nil {
		sanitizer = redact.Sanitizer{MaxLength: redact.DefaultMaxLength}
	}

	data, err := io.ReadAll(io.LimitReader(stdin, MaxInputSize))
	if err != nil {
		fmt.Fprintf(stderr, "%sError reading input: %v\n", diagPrefix, err)
		return 0
	}
	in, err := ParseInput(data)
	if err != nil {
		fmt.Fprintf(stderr, "%sInvalid JSON input: %v\n", diagPrefix, err)
		return 0
	}
	if in.ToolName != ToolBash {
		logger.Debug("ignoring tool", "tool", in.ToolName)
		return 0
	}
	command := in.Command()
	if command == "" {
		return 0
	}
	if opts.Checker == nil {
		logger.Error("no checker configured")
		return 0
	}

	v := opts.Checker.Check(command)
	if v.Warning != "" {
		fmt.Fprintln(stderr, diagPrefix+sanitizer.Sanitize(v.Warning))
	}
	if v.Kind == core.Allow {
		return 0
	}

	fmt.Fprintln(stderr, sanitizer.Sanitize(v.Message()))
	record(ctx, opts.Recorder, logger, in, command, v)
	return v.ExitCode()
}

func record(ctx context.Context, rec Recorder, logger *log.Logger, in *Input, command string, v core.Verdict) {
	if rec == nil {
		return
	}
	d := &db.Decision{
		Command:      redact.Secrets(command),
		Kind:         v.Kind.String(),
		Rule:         v.Rule,
		Pattern:      v.Pattern,
		Reason:       v.Reason,
		PolicySource: v.PolicySource,
		Managed:      v.Managed,
		SessionID:    in.SessionID,
		CWD:          in.CWD,
	}
	if err := rec.RecordDecisionContext(ctx, d); err != nil {
		logger.Warn("failed to record decision", "error", err, "rule", v.Rule)
		return
	}
	logger.Debug("recorded decision", "id", d.ID, "kind", d.Kind)
}
