package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/cardhash/internal/config"
	"github.com/nao1215/cardhash/internal/encoder"
	"github.com/nao1215/cardhash/internal/pipeline"
	"github.com/nao1215/cardhash/internal/report"
	"github.com/nao1215/cardhash/internal/source"
)

// errorKinds names the error families shown to the user, most specific first.
var errorKinds = []struct {
	target error
	kind   string
}{
	{pipeline.ErrArgumentMissing, "ArgumentMissing"},
	{source.ErrPathNotFound, "PathNotFoundError"},
	{source.ErrAccessDenied, "AccessDeniedError"},
	{source.ErrNotDirectory, "NotDirectoryError"},
	{encoder.ErrDecode, "DecodeError"},
	{encoder.ErrEncode, "EncodeError"},
	{report.ErrWrite, "WriteError"},
	{pipeline.ErrLocked, "LockedError"},
	{pipeline.ErrPartialFailure, "PartialFailure"},
	{errManifestInvalid, "ManifestInvalid"},
	{errRunNotFound, "RunNotFound"},
	{config.ErrConfigNotFound, "ConfigError"},
	{config.ErrInvalidWorkers, "ConfigError"},
	{config.ErrInvalidPattern, "ConfigError"},
	{config.ErrNoDBDir, "ConfigError"},
	{context.Canceled, "Canceled"},
}

// errorKind returns the family name of err.
func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	return "Error"
}

// formatError renders the single diagnostic line printed on failure.
func formatError(err error) string {
	return fmt.Sprintf("Error: %s: %v", errorKind(err), err)
}
