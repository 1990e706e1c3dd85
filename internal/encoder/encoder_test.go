package encoder

import (
	"context"
	"image"
	"image/color"
	"testing"
)

// TestBlurHashEncode tests the production encoder end to end.
func TestBlurHashEncode(t *testing.T) {
	t.Parallel()

	t.Run("4x3 token has fixed length", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 10, 10))
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				img.Set(x, y, color.RGBA{R: uint8(x * 25), G: 100, B: uint8(y * 25), A: 255})
			}
		}
		hash, err := NewBlurHash().Encode(img, 4, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 1 size flag + 1 max AC + 4 DC + 2 per AC component.
		if want := 6 + 2*(4*3-1); len(hash) != want {
			t.Errorf("expected %d characters, got %d (%q)", want, len(hash), hash)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		a, err := NewBlurHash().Encode(img, 4, 3)
		if err != nil {
			t.Fatal(err)
		}
		b, err := NewBlurHash().Encode(img, 4, 3)
		if err != nil {
			t.Fatal(err)
		}
		if a != b {
			t.Errorf("expected identical tokens, got %q and %q", a, b)
		}
	})

	t.Run("adapter with real encoder", func(t *testing.T) {
		t.Parallel()
		a, err := NewAdapter(NewBlurHash(), 4, 3)
		if err != nil {
			t.Fatal(err)
		}
		res, err := a.HashFile(context.Background(), writePNG(t, t.TempDir(), "g.png"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Hash == "" {
			t.Error("expected non-empty hash")
		}
	})
}

// TestEncoderFunc tests the function adapter.
func TestEncoderFunc(t *testing.T) {
	t.Parallel()

	var gotX, gotY int
	f := EncoderFunc(func(_ image.Image, x, y int) (string, error) {
		gotX, gotY = x, y
		return "fn", nil
	})
	hash, err := f.Encode(nil, 2, 5)
	if err != nil || hash != "fn" || gotX != 2 || gotY != 5 {
		t.Errorf("unexpected result hash=%q err=%v x=%d y=%d", hash, err, gotX, gotY)
	}
}
