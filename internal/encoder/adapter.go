package encoder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"
	"os"
)

// Cache stores hash tokens keyed by file content digest and component counts.
// Implementations must be safe for concurrent use.
type Cache interface {
	LookupHash(ctx context.Context, digest string, xComponents, yComponents int) (string, bool, error)
	StoreHash(ctx context.Context, digest string, xComponents, yComponents int, hash string) error
}

// Result is the outcome of hashing one file.
type Result struct {
	// Hash is the token produced by the encoder.
	Hash string

	// Cached is true when Hash came from the cache.
	Cached bool
}

// Adapter decodes image files and feeds them to an Encoder with fixed
// component counts.
type Adapter struct {
	encoder Encoder
	x, y    int
	cache   Cache
	logger  *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithCache attaches a hash cache.
func WithCache(c Cache) AdapterOption {
	return func(a *Adapter) {
		a.cache = c
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter creates an Adapter around enc using xComponents by yComponents.
func NewAdapter(enc Encoder, xComponents, yComponents int, opts ...AdapterOption) (*Adapter, error) {
	if xComponents < 1 || xComponents > 9 || yComponents < 1 || yComponents > 9 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidComponents, xComponents, yComponents)
	}
	a := &Adapter{
		encoder: enc,
		x:       xComponents,
		y:       yComponents,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a, nil
}

// HashFile decodes the image at path and returns its hash token.
// Read failures are returned as-is, undecodable bytes as *DecodeError and
// encoder failures as *EncodeError.
func (a *Adapter) HashFile(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // paths come from the enumerated source directory
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}

	var digest string
	if a.cache != nil {
		sum := sha256.Sum256(data)
		digest = hex.EncodeToString(sum[:])
		hash, ok, err := a.cache.LookupHash(ctx, digest, a.x, a.y)
		if err != nil {
			a.logger.Warn("hash cache lookup failed", "file", path, "error", err)
		} else if ok {
			a.logger.Debug("hash cache hit", "file", path)
			return Result{Hash: hash, Cached: true}, nil
		}
	}

	hash, err := a.hashBytes(path, data)
	if err != nil {
		return Result{}, err
	}

	if a.cache != nil {
		if err := a.cache.StoreHash(ctx, digest, a.x, a.y, hash); err != nil {
			a.logger.Warn("hash cache store failed", "file", path, "error", err)
		}
	}
	return Result{Hash: hash}, nil
}

// hashBytes decodes data and encodes the bitmap. The bitmap is scoped to
// this call and becomes garbage as soon as it returns.
func (a *Adapter) hashBytes(path string, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", &DecodeError{Path: path, Err: err}
	}

	hash, err := a.encoder.Encode(img, a.x, a.y)
	if err != nil {
		return "", &EncodeError{Path: path, Err: err}
	}
	if hash == "" {
		return "", &EncodeError{Path: path, Err: ErrEmptyHash}
	}
	return hash, nil
}
