package source

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/text/cases"

	"github.com/nao1215/cardhash/internal/config"
)

// options configures List.
type options struct {
	extensions []string
	exclude    []string
}

// Option configures List.
type Option func(*options)

// WithExtensions replaces the extension allow-list.
// Extensions include the leading dot, e.g. ".jpg".
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		o.extensions = exts
	}
}

// WithExcludePatterns skips files whose base name matches any of the
// path.Match patterns.
func WithExcludePatterns(patterns ...string) Option {
	return func(o *options) {
		o.exclude = patterns
	}
}

// List returns the paths of image files directly inside dir, in listing order.
// The returned paths are dir joined with each file name. An empty directory
// yields an empty, non-nil slice.
func List(dir string, opts ...Option) ([]string, error) {
	o := options{extensions: config.AllowedExtensions}
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckDirectory(dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ListError{Path: dir, Err: classify(err)}
	}

	fold := cases.Fold()
	allowed := make(map[string]bool, len(o.extensions))
	for _, ext := range o.extensions {
		allowed[fold.String(ext)] = true
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !isRegular(dir, entry) {
			continue
		}
		name := entry.Name()
		if !allowed[fold.String(filepath.Ext(name))] {
			continue
		}
		if excluded(name, o.exclude) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// CheckDirectory verifies that dir exists and is a directory.
// Failures are returned as *ListError.
func CheckDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &ListError{Path: dir, Err: classify(err)}
	}
	if !info.IsDir() {
		return &ListError{Path: dir, Err: ErrNotDirectory}
	}
	return nil
}

// HasAllowedExtension reports whether name carries one of the allowed extensions.
func HasAllowedExtension(name string) bool {
	fold := cases.Fold()
	ext := fold.String(filepath.Ext(name))
	for _, a := range config.AllowedExtensions {
		if fold.String(a) == ext {
			return true
		}
	}
	return false
}

// isRegular reports whether entry is a regular file, following symlinks.
func isRegular(dir string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// excluded reports whether name matches one of patterns.
// Malformed patterns never match; config validation rejects them earlier.
func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// classify maps filesystem errors to the package sentinel errors.
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.Join(ErrPathNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return errors.Join(ErrAccessDenied, err)
	default:
		return err
	}
}
