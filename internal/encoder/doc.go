// Package encoder wraps the perceptual-hash encoder behind a stable interface.
//
// The pipeline only ever sees Encoder (decoded image in, token out) and
// Adapter (file path in, token out). The hash algorithm itself is delegated
// to github.com/buckket/go-blurhash; tests inject deterministic stubs.
//
// The Adapter owns the file handle and the decoded bitmap for the duration
// of one call and releases both on every exit path, including decode failure.
package encoder
