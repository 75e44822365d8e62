package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"
)

// ErrorPayload is the canonical structured error shape.
type ErrorPayload struct {
	Error   string `json:"error" yaml:"error"`
	Message string `json:"message" yaml:"message"`
	Details any    `json:"details,omitempty" yaml:"details,omitempty"`
}

// Texter is implemented by results that have a human-readable rendering.
type Texter interface {
	Text() string
}

// Writer renders values in one Format.
type Writer struct {
	out    io.Writer
	format Format
}

// New returns a Writer for out.
func New(out io.Writer, format Format) *Writer {
	if format == "" {
		format = FormatText
	}
	return &Writer{out: out, format: format}
}

// Format returns the writer's format.
func (w *Writer) Format() Format { return w.format }

// Write renders v. In text mode v must implement Texter, be a string, or it is
// rendered as JSON.
func (w *Writer) Write(v any) error {
	switch w.format {
	case FormatJSON:
		return writeJSON(w.out, v, true)
	case FormatYAML:
		return writeYAML(w.out, v)
	default:
		switch t := v.(type) {
		case Texter:
			_, err := fmt.Fprintln(w.out, t.Text())
			return err
		case string:
			_, err := fmt.Fprintln(w.out, t)
			return err
		default:
			return writeJSON(w.out, v, true)
		}
	}
}

// WriteError renders err as an ErrorPayload in structured modes and as a plain
// line otherwise.
func (w *Writer) WriteError(err error, code int) error {
	if !w.format.IsStructured() {
		_, werr := fmt.Fprintf(w.out, "error: %v\n", err)
		return werr
	}
	return w.Write(ErrorPayload{
		Error:   "error",
		Message: err.Error(),
		Details: map[string]any{"code": code},
	})
}

func writeJSON(out io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
