package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/cardhash/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. Generation goes through nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteRun outputs a run report.
func (w *MarkdownWriter) WriteRun(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("cardhash Run Report")
	md.PlainText("")

	rows := [][]string{
		{"Run", "`" + run.ID + "`"},
		{"Directory", "`" + run.Directory + "`"},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", run.Duration().Round(time.Millisecond).String()},
		{"Status", w.runStatusText(run)},
		{"Files", strconv.Itoa(run.Total())},
		{"Cards", strconv.Itoa(run.Succeeded())},
		{"Failures", strconv.Itoa(run.Failed())},
		{"Cache Hits", strconv.Itoa(run.CacheHits)},
	}
	if run.ManifestPath != "" {
		rows = append(rows, []string{"Manifest", "`" + run.ManifestPath + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeRunAlert(md, run)
	w.writeCards(md, run)
	w.writeFailures(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// runStatusText returns the status cell for a run.
func (w *MarkdownWriter) runStatusText(run *model.Run) string {
	switch runStatus(run) {
	case "failed":
		return "❌ Failed - " + run.ErrorMessage
	case "partial":
		return "⚠️ Partial"
	case "complete":
		return "✅ Complete"
	default:
		return string(run.State)
	}
}

// writeRunAlert writes an alert describing the run outcome.
func (w *MarkdownWriter) writeRunAlert(md *markdown.Markdown, run *model.Run) {
	switch runStatus(run) {
	case "failed":
		md.Caution("No manifest was written. The previous cards.json, if any, is unchanged.")
	case "partial":
		md.Warningf("%d file(s) were skipped and are missing from the manifest.", run.Failed())
	default:
		md.Tip("All files were processed.")
	}
	md.PlainText("")
}

// writeCards writes the manifest entries.
func (w *MarkdownWriter) writeCards(md *markdown.Markdown, run *model.Run) {
	md.H2("Cards")
	md.PlainText("")

	if len(run.Cards) == 0 {
		md.PlainText("No cards.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Cards))
	for i, c := range run.Cards {
		rows[i] = []string{strconv.Itoa(c.ID), c.Filename, "`" + c.Hash + "`"}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Filename", "Hash"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the files that could not be processed.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, run *model.Run) {
	if len(run.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(run.Failures))
	for i, f := range run.Failures {
		rows[i] = []string{strconv.Itoa(f.Index), f.Filename, f.Stage, truncateString(f.Message, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Index", "Filename", "Stage", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteAudit outputs a metadata audit report.
func (w *MarkdownWriter) WriteAudit(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("cardhash Metadata Audit")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Directory", "`" + report.Directory + "`"},
			{"Audit Date", report.DateAudited.Format("2006-01-02 15:04:05 MST")},
			{"Files Scanned", strconv.Itoa(report.FilesScanned)},
		},
	})
	md.PlainText("")

	w.writeAuditSummary(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeAuditSummary writes the severity summary section.
func (w *MarkdownWriter) writeAuditSummary(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 High", strconv.Itoa(report.HighCount)},
			{"🟡 Medium", strconv.Itoa(report.MediumCount)},
			{"🔵 Low", strconv.Itoa(report.LowCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}
	w.writeAuditAlert(md, report)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.AuditReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	counts := []struct {
		label string
		n     int
	}{
		{"Critical", report.CriticalCount},
		{"High", report.HighCount},
		{"Medium", report.MediumCount},
		{"Low", report.LowCount},
		{"Info", report.InfoCount},
	}
	for _, c := range counts {
		if c.n > 0 {
			chart.LabelAndIntValue(c.label, uint64(c.n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAuditAlert writes an alert based on severity counts.
func (w *MarkdownWriter) writeAuditAlert(md *markdown.Markdown, report *model.AuditReport) {
	switch {
	case report.CriticalCount > 0:
		md.Cautionf(
			"%d image(s) expose GPS coordinates. Strip metadata before publishing.",
			report.CriticalCount,
		)
	case report.HighCount > 0:
		md.Warningf(
			"%d finding(s) identify a device or person.",
			report.HighCount,
		)
	case report.MediumCount > 0:
		md.Importantf(
			"%d finding(s) reveal camera or host details.",
			report.MediumCount,
		)
	case report.TotalFindings() > 0:
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip("No identifying metadata found.")
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Findings")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No metadata findings detected.")
		md.PlainText("")
		return
	}

	headers := map[model.Severity]string{
		model.SeverityCritical: "### 🔴 Critical",
		model.SeverityHigh:     "### 🟠 High",
		model.SeverityMedium:   "### 🟡 Medium",
		model.SeverityLow:      "### 🔵 Low",
		model.SeverityInfo:     "### ⚪ Info",
	}

	for _, sev := range severityOrder {
		findings := report.GetFindingsBySeverity(sev)
		if len(findings) == 0 {
			continue
		}
		md.PlainText(headers[sev])
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			f.Title,
			truncateString(orDash(f.Value), 50),
			truncateString(orDash(f.Location), 40),
			truncateString(orDash(f.Recommendation), 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "Value", "File", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description != "" {
			md.Details(fmt.Sprintf("%s (%s)", f.Title, f.Location), f.Description)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [cardhash](https://github.com/nao1215/cardhash)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
