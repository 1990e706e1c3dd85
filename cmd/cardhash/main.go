// Package main provides the entry point for the cardhash CLI.
//
// cardhash computes a BlurHash for every image in a directory and writes the
// ordered result to cards.json, where a client picks it up to render
// placeholders while the real images load.
//
// Usage:
//
//	cardhash generate <directory>
//	cardhash verify <directory>
//	cardhash audit <directory>
//
// See --help for all available options.
package main

// main is the entry point for cardhash.
func main() {
	Execute()
}
