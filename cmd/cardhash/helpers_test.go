package main

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/cardhash/internal/config"
)

// writeImage writes a small gradient image to dir/name, encoded by extension.
func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 9))
	for y := range 9 {
		for x := range 12 {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 25), B: 150, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatal(err)
	}
	return path
}

// testConfig returns a config for dir whose run store and locks live in
// temporary directories.
func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Directory = dir
	cfg.DBDir = t.TempDir()
	cfg.LockDir = t.TempDir()
	return cfg
}

// discardLogger returns a logger that drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
