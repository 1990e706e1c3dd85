package encoder

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrDecode is wrapped by DecodeError.
	ErrDecode = errors.New("decode error")

	// ErrEncode is wrapped by EncodeError.
	ErrEncode = errors.New("encode error")

	// ErrEmptyHash is returned when the encoder produces an empty token.
	ErrEmptyHash = errors.New("encoder returned an empty hash")

	// ErrInvalidComponents is returned for component counts outside 1..9.
	ErrInvalidComponents = errors.New("invalid component count: must be between 1 and 9")
)

// DecodeError reports a file whose bytes are not a valid image in a
// supported format. The extension allow-list is only a prefilter, so
// truncated or mislabeled files end up here.
type DecodeError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

// Unwrap lets errors.Is match both ErrDecode and the cause.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// EncodeError reports a failure inside the hash encoder.
type EncodeError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

// Unwrap lets errors.Is match both ErrEncode and the cause.
func (e *EncodeError) Unwrap() []error {
	return []error{ErrEncode, e.Err}
}
