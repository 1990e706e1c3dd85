package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/cardhash/internal/config"
	"github.com/nao1215/cardhash/internal/model"
)

// ErrWrite is wrapped by WriteError.
var ErrWrite = errors.New("write error")

// WriteError reports a manifest that could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

// Unwrap lets errors.Is match both ErrWrite and the cause.
func (e *WriteError) Unwrap() []error {
	return []error{ErrWrite, e.Err}
}

// ManifestWriter writes cards.json into a source directory.
type ManifestWriter struct {
	fileName string
	perm     os.FileMode
}

// ManifestWriterOption configures a ManifestWriter.
type ManifestWriterOption func(*ManifestWriter)

// WithFileName overrides the manifest file name.
func WithFileName(name string) ManifestWriterOption {
	return func(w *ManifestWriter) {
		w.fileName = name
	}
}

// WithFileMode sets the permission bits of the written manifest.
func WithFileMode(perm os.FileMode) ManifestWriterOption {
	return func(w *ManifestWriter) {
		w.perm = perm
	}
}

// NewManifestWriter creates a ManifestWriter. The manifest is world-readable
// by default because it is served to clients as a static asset.
func NewManifestWriter(opts ...ManifestWriterOption) *ManifestWriter {
	w := &ManifestWriter{
		fileName: config.ManifestFileName,
		perm:     0o644,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns where the manifest for dir is written.
func (w *ManifestWriter) Path(dir string) string {
	return filepath.Join(dir, w.fileName)
}

// Write serializes manifest and replaces the manifest file in dir. Readers
// see either the previous file or the complete new one, never a partial
// write. It returns the written path.
func (w *ManifestWriter) Write(dir string, manifest model.Manifest) (string, error) {
	path := w.Path(dir)

	data, err := MarshalManifest(manifest)
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data, w.perm); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	return path, nil
}

// MarshalManifest encodes manifest with two-space indentation and a trailing
// newline. A nil manifest encodes as an empty array.
func MarshalManifest(manifest model.Manifest) ([]byte, error) {
	if manifest == nil {
		manifest = model.NewManifest(nil)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// ReadManifest reads a manifest from disk.
func ReadManifest(path string) (model.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the manifest of a user-supplied directory
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m model.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return model.NewManifest(m), nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it over path. The temporary file is removed on every failure.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
