package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// newJSONHandler writes one JSON object per record. Run log files and the
// logs command both read this shape.
func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: jsonAttr,
	})
}

func jsonAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		if a.Value.Kind() != slog.KindTime {
			return slog.Attr{Key: "ts", Value: a.Value}
		}
		return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
	case slog.LevelKey:
		return slog.String(a.Key, strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String(a.Key, filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
		}
	}
	return a
}

// stampedHandler appends fixed attributes to every record after the
// record's own attributes.
type stampedHandler struct {
	next  slog.Handler
	stamp []slog.Attr
}

func newStampedHandler(next slog.Handler, stamp ...slog.Attr) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	if len(stamp) == 0 {
		return next
	}
	return stampedHandler{next: next, stamp: stamp}
}

func (h stampedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h stampedHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(h.stamp...)
	return h.next.Handle(ctx, record)
}

func (h stampedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return stampedHandler{next: h.next.WithAttrs(attrs), stamp: h.stamp}
}

func (h stampedHandler) WithGroup(name string) slog.Handler {
	return stampedHandler{next: h.next.WithGroup(name), stamp: h.stamp}
}
