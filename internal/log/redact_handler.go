package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// HomeAlias replaces the home directory prefix in redacted values.
const HomeAlias = "~"

// RedactingHandler wraps an slog.Handler and rewrites the home directory
// prefix of string attribute values before passing records on.
type RedactingHandler struct {
	// handler receives the rewritten records.
	handler slog.Handler

	// home is the prefix to rewrite. Empty disables rewriting.
	home string
}

// NewRedactingHandler creates a RedactingHandler that rewrites home.
// If handler is nil, slog.Default().Handler() is used.
func NewRedactingHandler(handler slog.Handler, home string) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	home = strings.TrimSuffix(home, string(filepath.Separator))
	// Rewriting "/" would mangle every absolute path.
	if home == "" || home == string(filepath.Separator) {
		home = ""
	}
	return &RedactingHandler{handler: handler, home: home}
}

// Enabled delegates to the underlying handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and the message.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a new handler with the rewritten attributes added.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted), home: h.home}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name), home: h.home}
}

// redactAttr rewrites a single attribute, recursing into groups.
// Errors are rendered to strings so paths inside messages are covered too.
func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = h.redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	case slog.KindString:
		return slog.String(a.Key, h.redact(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, h.redact(err.Error()))
		}
	}
	return a
}

// redact replaces every occurrence of the home prefix that is followed by a
// separator or the end of the string.
func (h *RedactingHandler) redact(s string) string {
	if h.home == "" || !strings.Contains(s, h.home) {
		return s
	}
	var b strings.Builder
	rest := s
	for {
		i := strings.Index(rest, h.home)
		if i < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := i + len(h.home)
		if end == len(rest) || rest[end] == filepath.Separator {
			b.WriteString(rest[:i])
			b.WriteString(HomeAlias)
		} else {
			b.WriteString(rest[:end])
		}
		rest = rest[end:]
	}
}

// userHome returns the home directory or "" when it cannot be determined.
func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates a text logger writing to w.
// verbose lowers the level from Warn to Debug.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(verbose)}
	return slog.New(NewRedactingHandler(slog.NewTextHandler(w, opts), userHome()))
}

// NewJSONLogger creates a JSON logger writing to w.
// verbose lowers the level from Warn to Debug.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(verbose)}
	return slog.New(NewRedactingHandler(slog.NewJSONHandler(w, opts), userHome()))
}
