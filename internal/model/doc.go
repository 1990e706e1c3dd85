// Package model defines the core data structures used throughout cardhash.
//
// This package contains the following main types:
//   - Card: One manifest entry (id, filename, hash)
//   - Manifest: The ordered list of Cards written to cards.json
//   - Run: The state of one manifest generation run, threaded through the pipeline
//   - Failure: A file that could not be turned into a Card
//   - Finding / AuditReport: Image metadata audit results
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The pipeline, report, database and audit packages all need
// these types, so centralizing them prevents import cycles.
package model
