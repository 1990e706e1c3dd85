package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/cardhash/internal/model"
	"github.com/nao1215/cardhash/internal/source"
)

// DefaultMaxFileSize is the largest file the Auditor reads.
const DefaultMaxFileSize = 64 << 20

// Auditor scans a directory's images for metadata findings.
type Auditor struct {
	maxFileSize int64
	listOpts    []source.Option
	logger      *slog.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithMaxFileSize limits how many bytes of each file are inspected.
func WithMaxFileSize(n int64) Option {
	return func(a *Auditor) {
		if n > 0 {
			a.maxFileSize = n
		}
	}
}

// WithListOptions sets the enumeration options, so the audit covers the
// same files as manifest generation.
func WithListOptions(opts ...source.Option) Option {
	return func(a *Auditor) {
		a.listOpts = opts
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// New creates an Auditor.
func New(opts ...Option) *Auditor {
	a := &Auditor{
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Audit inspects every image in dir. Enumeration errors are fatal; files
// that cannot be read are logged and skipped.
func (a *Auditor) Audit(ctx context.Context, dir string) (*model.AuditReport, error) {
	paths, err := source.List(dir, a.listOpts...)
	if err != nil {
		return nil, err
	}

	report := model.NewAuditReport(dir)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		data, err := a.readFile(path)
		if err != nil {
			a.logger.Warn("skipping unreadable file", "file", path, "error", err)
			continue
		}
		report.FilesScanned++

		findings := AnalyzeData(data, filepath.Base(path))
		a.logger.Debug("audited file", "file", path, "findings", len(findings))
		report.AddFindings(findings...)
	}
	return report, nil
}

// readFile reads at most maxFileSize bytes of path.
func (a *Auditor) readFile(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // paths come from the enumerated directory
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, a.maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
