package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/cardhash/internal/audit"
	cardlog "github.com/nao1215/cardhash/internal/log"
	"github.com/nao1215/cardhash/internal/report"
	"github.com/nao1215/cardhash/internal/source"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [directory]",
		Short: "Report EXIF metadata that would be published with the images",
		Long: `Audit inspects the images that 'cardhash generate' would include and
reports EXIF metadata that reveals more than the picture itself:
- GPS coordinates (critical)
- device serial numbers and author names (high)
- camera make/model and host computer names (medium)
- software and timestamps (low)

Examples:
  # Human-readable report
  cardhash audit ./cards

  # JSON report written to a file
  cardhash audit --json -o audit.json ./cards`,
		Args: cobra.ExactArgs(1),
		RunE: runAuditCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().StringSlice("exclude", nil,
		"Skip files whose name matches the glob pattern (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// auditOutput selects the audit report format and destination.
type auditOutput struct {
	json     bool
	markdown bool
	file     string
	verbose  bool
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	var opts auditOutput
	var err error
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.file, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	exclude, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return err
	}

	opts.verbose = getVerboseFlag(cmd)
	logger := cardlog.NewLogger(cmd.ErrOrStderr(), opts.verbose)
	auditor := audit.New(
		audit.WithLogger(logger),
		audit.WithListOptions(source.WithExcludePatterns(exclude...)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cmd.OutOrStdout(), auditor, args[0], opts)
}

// runAudit audits dir and writes the report in the requested format. When a
// JSON or Markdown report goes to a file, a text summary is still printed.
func runAudit(ctx context.Context, stdout io.Writer, auditor *audit.Auditor, dir string, opts auditOutput) (err error) {
	auditReport, err := auditor.Audit(ctx, dir)
	if err != nil {
		return err
	}

	out := stdout
	if opts.file != "" {
		if d := filepath.Dir(opts.file); d != "" && d != "." {
			if err := os.MkdirAll(d, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		// Reports quote metadata values, keep them private to the owner.
		f, err := os.OpenFile(opts.file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // user-provided output path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		out = f
	}

	text := report.NewSimpleWriter(stdout, report.WithShowEmpty(opts.verbose))
	var writer report.Writer
	switch {
	case opts.json:
		writer = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case opts.markdown:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithShowEmpty(opts.verbose))
	}
	if opts.file != "" && (opts.json || opts.markdown) {
		writer = report.NewMultiWriter(writer, text)
	}
	_, err = writer.WriteAudit(auditReport)
	return err
}
