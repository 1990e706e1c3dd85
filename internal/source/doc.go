// Package source enumerates candidate image files in a directory.
//
// Only regular files directly inside the directory are considered;
// subdirectories are never traversed. Files are filtered by an extension
// allow-list compared with Unicode case folding, so "PHOTO.JPG" matches ".jpg".
//
// Ordering is the order returned by os.ReadDir, which sorts entries by
// filename. Card ids are derived from this order, so they are stable across
// runs on an unchanged directory.
package source
