package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type contextKey int

const (
	siteKey contextKey = iota
	scenarioKey
	targetKey
)

// MaskValue replaces masked attribute values in log output.
const MaskValue = "***"

// maskedKeys are attribute keys whose values are masked before logging.
// Cookie values can carry session identifiers for the analyzed site.
var maskedKeys = map[string]bool{
	"cookie":       true,
	"cookie_value": true,
	"set-cookie":   true,
}

// WithSite attaches the analyzed site and consent scenario to the context.
func WithSite(ctx context.Context, siteURL, scenario string) context.Context {
	ctx = context.WithValue(ctx, siteKey, siteURL)
	return context.WithValue(ctx, scenarioKey, scenario)
}

// WithTarget attaches the target type under discovery to the context.
func WithTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, targetKey, target)
}

// ContextHandler wraps an slog.Handler and stamps scan context (site,
// scenario, target) from the context.Context onto every record, masking
// cookie values along the way.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because it integrates with standard slog APIs and works with any
// underlying handler (text, JSON, etc.).
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler wraps the given handler. A nil handler falls back to
// slog.Default().Handler().
func NewContextHandler(handler slog.Handler) *ContextHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle stamps the scan context onto the record, masks cookie values,
// and passes the result to the underlying handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	stamped := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	seen := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		seen[a.Key] = true
		stamped.AddAttrs(maskAttr(a))
		return true
	})

	// Context attributes never override explicit ones.
	for key, ctxKey := range map[string]contextKey{
		"site":     siteKey,
		"scenario": scenarioKey,
		"target":   targetKey,
	} {
		if seen[key] {
			continue
		}
		if v, ok := ctx.Value(ctxKey).(string); ok && v != "" {
			stamped.AddAttrs(slog.String(key, v))
		}
	}

	return h.handler.Handle(ctx, stamped)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = maskAttr(a)
	}
	return &ContextHandler{handler: h.handler.WithAttrs(masked)}
}

// WithGroup returns a new handler with the given group name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks cookie-valued attributes, recursing into groups.
func maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		masked := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			masked[i] = maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
	}

	if maskedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

// NewLogger creates a text logger with scan-context stamping. Verbose
// mode lowers the level to Debug; otherwise Info.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewJSONLogger is NewLogger with JSON output, for log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
