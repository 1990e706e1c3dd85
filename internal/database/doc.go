// Package database provides SQLite-based storage for cardhash.
//
// The RunDB stores:
//   - One record per manifest generation run (counts, state, failures)
//   - A content-addressed hash cache keyed by file digest and component counts
//
// SQLite (via modernc.org/sqlite) keeps the store a single file without CGO.
// The hash cache lets repeated runs over a mostly unchanged directory skip
// decoding and encoding of files whose bytes have not changed.
package database
