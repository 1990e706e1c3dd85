package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/cardhash/internal/model"
)

// ruleWidth is the width of section separators.
const ruleWidth = 70

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun outputs a run summary.
func (w *SimpleWriter) WriteRun(run *model.Run) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("RUN SUMMARY\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Run:        %s\n", run.ID)
	fmt.Fprintf(&sb, "Directory:  %s\n", run.Directory)
	fmt.Fprintf(&sb, "Status:     %s\n", runStatus(run))
	fmt.Fprintf(&sb, "Files:      %d\n", run.Total())
	fmt.Fprintf(&sb, "Cards:      %d\n", run.Succeeded())
	fmt.Fprintf(&sb, "Failures:   %d\n", run.Failed())
	fmt.Fprintf(&sb, "Cache hits: %d\n", run.CacheHits)
	fmt.Fprintf(&sb, "Duration:   %s\n", run.Duration().Round(time.Millisecond))
	if run.ManifestPath != "" {
		fmt.Fprintf(&sb, "Manifest:   %s\n", run.ManifestPath)
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(&sb, "Error:      %s\n", run.ErrorMessage)
	}
	sb.WriteString("\n")

	if len(run.Failures) > 0 || w.showEmpty {
		writeRule(&sb, "-")
		sb.WriteString("FAILURES\n")
		writeRule(&sb, "-")
		sb.WriteString("\n")
		if len(run.Failures) == 0 {
			sb.WriteString("  No failures\n")
		}
		for _, f := range run.Failures {
			fmt.Fprintf(&sb, "  [%d] %s (%s)\n", f.Index, f.Filename, f.Stage)
			if w.verbose {
				fmt.Fprintf(&sb, "      %s\n", f.Message)
			}
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

// WriteAudit outputs a metadata audit report.
func (w *SimpleWriter) WriteAudit(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	writeRule(&sb, "=")
	sb.WriteString("                      CARDHASH METADATA AUDIT\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Directory:     %s\n", report.Directory)
	fmt.Fprintf(&sb, "Audit Date:    %s\n", report.DateAudited.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Files Scanned: %d\n", report.FilesScanned)
	sb.WriteString("\n")

	w.writeAuditSummary(&sb, report)
	w.writeFindings(&sb, report)

	writeRule(&sb, "=")
	return io.WriteString(w.output, sb.String())
}

// writeAuditSummary writes the severity summary section.
func (w *SimpleWriter) writeAuditSummary(sb *strings.Builder, report *model.AuditReport) {
	writeRule(sb, "-")
	sb.WriteString("SEVERITY SUMMARY\n")
	writeRule(sb, "-")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  CRITICAL: %d\n", report.CriticalCount)
	fmt.Fprintf(sb, "  HIGH:     %d\n", report.HighCount)
	fmt.Fprintf(sb, "  MEDIUM:   %d\n", report.MediumCount)
	fmt.Fprintf(sb, "  LOW:      %d\n", report.LowCount)
	fmt.Fprintf(sb, "  INFO:     %d\n", report.InfoCount)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d findings\n", report.TotalFindings())
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity, critical first.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.AuditReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	writeRule(sb, "-")
	sb.WriteString("FINDINGS\n")
	writeRule(sb, "-")
	sb.WriteString("\n")

	for _, severity := range severityOrder {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity.String())
		if len(findings) == 0 {
			sb.WriteString("  No findings\n\n")
			continue
		}
		for _, finding := range findings {
			fmt.Fprintf(sb, "  * %s\n", finding.Title)
			if finding.Value != "" {
				fmt.Fprintf(sb, "    Value: %s\n", finding.Value)
			}
			if finding.Location != "" {
				fmt.Fprintf(sb, "    Location: %s\n", finding.Location)
			}
			if w.verbose && finding.Description != "" {
				fmt.Fprintf(sb, "    Description: %s\n", finding.Description)
			}
		}
		sb.WriteString("\n")
	}
}

// severityOrder lists severities from most to least severe.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

func writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, ruleWidth))
	sb.WriteString("\n")
}
