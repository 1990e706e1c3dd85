package report

import (
	"io"

	"github.com/nao1215/cardhash/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteRun outputs the summary of a generation run.
	// Returns the number of bytes written and any error encountered.
	WriteRun(run *model.Run) (int, error)

	// WriteAudit outputs a metadata audit report.
	WriteAudit(report *model.AuditReport) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteRun outputs the run to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteRun(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteRun(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAudit outputs the audit report to all configured Writers.
func (m *MultiWriter) WriteAudit(report *model.AuditReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAudit(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// runStatus returns a short status for run.
func runStatus(run *model.Run) string {
	switch {
	case run.State == model.StateFailed:
		return "failed"
	case run.Failed() > 0:
		return "partial"
	case run.State == model.StateDone:
		return "complete"
	default:
		return string(run.State)
	}
}
