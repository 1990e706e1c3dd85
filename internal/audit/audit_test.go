package audit

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/cardhash/internal/source"
)

// plainJPEG encodes a small JPEG without any metadata segments.
func plainJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// ifdEntry is one little-endian TIFF directory entry.
type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
}

// tiffWithMetadata builds a little-endian TIFF block with Model, Software
// and a GPS IFD holding the latitude.
func tiffWithMetadata() []byte {
	le := binary.LittleEndian
	model := []byte("PixelCam 3\x00")
	software := []byte("Editor 1.0\x00")

	const ifd0Offset = 8
	ifd0Size := 2 + 3*12 + 4
	modelOffset := ifd0Offset + ifd0Size
	softwareOffset := modelOffset + len(model)
	gpsOffset := softwareOffset + len(software)
	gpsSize := 2 + 2*12 + 4
	latitudeOffset := gpsOffset + gpsSize

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, le, uint16(42))
	_ = binary.Write(&buf, le, uint32(ifd0Offset))

	writeIFD := func(entries []ifdEntry) {
		_ = binary.Write(&buf, le, uint16(len(entries)))
		for _, e := range entries {
			_ = binary.Write(&buf, le, e)
		}
		_ = binary.Write(&buf, le, uint32(0))
	}

	writeIFD([]ifdEntry{
		{tag: 0x0110, typ: 2, count: uint32(len(model)), value: uint32(modelOffset)},
		{tag: 0x0131, typ: 2, count: uint32(len(software)), value: uint32(softwareOffset)},
		{tag: 0x8825, typ: 4, count: 1, value: uint32(gpsOffset)},
	})
	buf.Write(model)
	buf.Write(software)

	// "N\x00" fits inline in the value field.
	writeIFD([]ifdEntry{
		{tag: 0x0001, typ: 2, count: 2, value: uint32('N')},
		{tag: 0x0002, typ: 5, count: 3, value: uint32(latitudeOffset)},
	})
	for _, r := range [][2]uint32{{35, 1}, {41, 1}, {2200, 100}} {
		_ = binary.Write(&buf, le, r[0])
		_ = binary.Write(&buf, le, r[1])
	}
	return buf.Bytes()
}

// jpegWithExif splices an APP1 Exif segment right after the SOI marker.
func jpegWithExif(t *testing.T) []byte {
	t.Helper()
	plain := plainJPEG(t)
	payload := append([]byte("Exif\x00\x00"), tiffWithMetadata()...)

	var buf bytes.Buffer
	buf.Write(plain[:2])
	buf.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write(plain[2:])
	return buf.Bytes()
}

func TestAnalyzeData(t *testing.T) {
	t.Parallel()

	t.Run("image without EXIF yields no findings", func(t *testing.T) {
		t.Parallel()
		findings := AnalyzeData(plainJPEG(t), "plain.jpg")
		if len(findings) != 0 {
			t.Errorf("got %d findings, want 0: %+v", len(findings), findings)
		}
	})

	t.Run("garbage yields no findings", func(t *testing.T) {
		t.Parallel()
		findings := AnalyzeData([]byte("not an image"), "junk.jpg")
		if findings == nil {
			t.Fatal("findings should be non-nil")
		}
		if len(findings) != 0 {
			t.Errorf("got %d findings, want 0", len(findings))
		}
	})

	t.Run("identifying tags are reported", func(t *testing.T) {
		t.Parallel()
		findings := AnalyzeData(jpegWithExif(t), "photo.jpg")
		if len(findings) == 0 {
			t.Fatal("expected findings")
		}

		types := make([]string, 0, len(findings))
		for _, f := range findings {
			types = append(types, f.Type)
			if f.Location != "photo.jpg" {
				t.Errorf("finding %s location = %q, want photo.jpg", f.Type, f.Location)
			}
		}
		sort.Strings(types)
		want := []string{"exif_camera", "exif_gps", "exif_software"}
		if diff := cmp.Diff(want, types); diff != "" {
			t.Errorf("finding types mismatch (-want +got):\n%s", diff)
		}

		if findings[0].Type != "exif_gps" {
			t.Errorf("first finding = %s, want exif_gps", findings[0].Type)
		}
		for _, f := range findings {
			switch f.Type {
			case "exif_camera":
				if !strings.Contains(f.Value, "PixelCam 3") {
					t.Errorf("camera value = %q", f.Value)
				}
			case "exif_software":
				if !strings.Contains(f.Value, "Editor 1.0") {
					t.Errorf("software value = %q", f.Value)
				}
			case "exif_gps":
				if !strings.Contains(f.Value, "GPSLatitude") {
					t.Errorf("gps value = %q", f.Value)
				}
			}
			if f.SeverityText == "" || f.Recommendation == "" {
				t.Errorf("finding %s lacks severity info: %+v", f.Type, f)
			}
		}
	})
}

func TestAuditor_Audit(t *testing.T) {
	t.Parallel()

	t.Run("scans every image in the directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "clean.jpg"), plainJPEG(t), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "leaky.jpg"), jpegWithExif(t), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600); err != nil {
			t.Fatal(err)
		}

		report, err := New().Audit(context.Background(), dir)
		if err != nil {
			t.Fatalf("Audit() error = %v", err)
		}
		if report.FilesScanned != 2 {
			t.Errorf("FilesScanned = %d, want 2", report.FilesScanned)
		}
		if report.TotalFindings() != 3 {
			t.Errorf("TotalFindings() = %d, want 3", report.TotalFindings())
		}
		for _, f := range report.Findings {
			if f.Location != "leaky.jpg" {
				t.Errorf("unexpected location %q", f.Location)
			}
		}
		sum := report.CriticalCount + report.HighCount + report.MediumCount + report.LowCount + report.InfoCount
		if sum != report.TotalFindings() {
			t.Errorf("severity counters sum to %d, want %d", sum, report.TotalFindings())
		}
	})

	t.Run("list options narrow the audit", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "leaky.jpg"), jpegWithExif(t), 0o600); err != nil {
			t.Fatal(err)
		}

		auditor := New(WithListOptions(source.WithExcludePatterns("leaky*")))
		report, err := auditor.Audit(context.Background(), dir)
		if err != nil {
			t.Fatalf("Audit() error = %v", err)
		}
		if report.FilesScanned != 0 || report.HasFindings() {
			t.Errorf("report = %+v, want empty", report)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		_, err := New().Audit(context.Background(), filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, source.ErrPathNotFound) {
			t.Errorf("Audit() error = %v, want ErrPathNotFound", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "a.jpg"), plainJPEG(t), 0o600); err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := New().Audit(ctx, dir); !errors.Is(err, context.Canceled) {
			t.Errorf("Audit() error = %v, want context.Canceled", err)
		}
	})

	t.Run("max file size truncates reads", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "leaky.jpg"), jpegWithExif(t), 0o600); err != nil {
			t.Fatal(err)
		}
		report, err := New(WithMaxFileSize(4)).Audit(context.Background(), dir)
		if err != nil {
			t.Fatalf("Audit() error = %v", err)
		}
		if report.HasFindings() {
			t.Errorf("expected no findings from a 4 byte prefix, got %d", report.TotalFindings())
		}
	})
}
