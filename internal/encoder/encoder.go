package encoder

import (
	"image"

	"github.com/buckket/go-blurhash"
)

// Encoder maps a decoded image and two component counts to a hash token.
type Encoder interface {
	Encode(img image.Image, xComponents, yComponents int) (string, error)
}

// EncoderFunc adapts a plain function to the Encoder interface.
type EncoderFunc func(img image.Image, xComponents, yComponents int) (string, error)

// Encode calls f.
func (f EncoderFunc) Encode(img image.Image, xComponents, yComponents int) (string, error) {
	return f(img, xComponents, yComponents)
}

// BlurHash is the production Encoder.
type BlurHash struct{}

// NewBlurHash returns the BlurHash encoder.
func NewBlurHash() *BlurHash {
	return &BlurHash{}
}

// Encode computes the BlurHash of img.
func (BlurHash) Encode(img image.Image, xComponents, yComponents int) (string, error) {
	return blurhash.Encode(xComponents, yComponents, img)
}

var _ Encoder = (*BlurHash)(nil)
