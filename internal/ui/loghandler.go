package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// LogHandler is a slog.Handler that prints records as prefixed user-facing lines,
// e.g. "[snailer] warning: no checksum published file=...".
// Only records at or above the configured level are written.
type LogHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	style *Style
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewLogHandler creates a handler that writes to w.
func NewLogHandler(w io.Writer, level slog.Leveler) *LogHandler {
	return &LogHandler{
		mu:    &sync.Mutex{},
		w:     w,
		style: NewStyle(),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats the record and writes it as a single line.
func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.levelLabel(r.Level))
	b.WriteString(r.Message)

	// Append handler-level attrs
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%q", h.qualifiedKey(a.Key), a.Value)
	}

	// Append record-level attrs
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%q", h.qualifiedKey(a.Key), a.Value)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.style.Println(h.w, "%s", b.String())
	return nil
}

// WithAttrs returns a new handler with the given attributes.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &LogHandler{
		mu:    h.mu,
		w:     h.w,
		style: h.style,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new handler with the given group name.
func (h *LogHandler) WithGroup(name string) slog.Handler {
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}
	return &LogHandler{
		mu:    h.mu,
		w:     h.w,
		style: h.style,
		level: h.level,
		attrs: h.attrs,
		group: newGroup,
	}
}

func (h *LogHandler) levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.style.FailMark + " error: "
	case level >= slog.LevelWarn:
		return h.style.WarnMark + " warning: "
	case level >= slog.LevelInfo:
		return ""
	default:
		return "debug: "
	}
}

// qualifiedKey prepends the group prefix to a key.
func (h *LogHandler) qualifiedKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
