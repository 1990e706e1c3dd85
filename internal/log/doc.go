// Package log provides the application's slog setup.
//
// Log lines are meant to be pasted into bug reports, so the RedactingHandler
// rewrites the user's home directory prefix in string attributes to "~".
// Everything else is passed through unchanged to the underlying handler.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Info("manifest written", "file", "/home/alice/cards/cards.json")
//	// file=~/cards/cards.json
package log
