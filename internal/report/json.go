package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/cardhash/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is embedded in the output when non-empty.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion embeds the tool version in the output envelope.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// runEnvelope wraps a run with derived counters.
type runEnvelope struct {
	Version   string     `json:"version,omitempty"`
	Status    string     `json:"status"`
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Run       *model.Run `json:"run"`
}

// auditEnvelope wraps an audit report.
type auditEnvelope struct {
	Version string             `json:"version,omitempty"`
	Report  *model.AuditReport `json:"report"`
}

// WriteRun outputs the run in JSON format.
func (w *JSONWriter) WriteRun(run *model.Run) (int, error) {
	return w.writeJSON(runEnvelope{
		Version:   w.version,
		Status:    runStatus(run),
		Total:     run.Total(),
		Succeeded: run.Succeeded(),
		Failed:    run.Failed(),
		Run:       run,
	})
}

// WriteAudit outputs the audit report in JSON format.
func (w *JSONWriter) WriteAudit(report *model.AuditReport) (int, error) {
	return w.writeJSON(auditEnvelope{
		Version: w.version,
		Report:  report,
	})
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
