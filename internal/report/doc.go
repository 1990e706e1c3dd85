// Package report writes cardhash's output files and summaries.
//
// The ManifestWriter produces cards.json, the artifact consumed by clients.
// It always replaces the file atomically.
//
// The remaining writers render run results and metadata audits for people
// and tools:
//   - SimpleWriter: plain text for terminal display
//   - MarkdownWriter: Markdown for sharing in issues and pull requests
//   - JSONWriter: structured JSON for tool integration
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report
