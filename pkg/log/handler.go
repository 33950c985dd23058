package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// StackHandler decorates another slog.Handler. When a record carries an
// error that recorded a stack, under any key and at any group depth, the
// stack of the first such error is appended as StacktraceAttrKey.
type StackHandler struct {
	next slog.Handler
}

// WithStacktrace returns next decorated by a StackHandler.
func WithStacktrace(next slog.Handler) slog.Handler {
	return &StackHandler{next: next}
}

func (h *StackHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *StackHandler) Handle(ctx context.Context, r slog.Record) error {
	var trace string
	r.Attrs(func(a slog.Attr) bool {
		trace = stackOf(a)
		return trace == ""
	})
	if trace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, trace))
	}
	return h.next.Handle(ctx, r)
}

func (h *StackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &StackHandler{next: h.next.WithAttrs(attrs)}
}

func (h *StackHandler) WithGroup(g string) slog.Handler {
	return &StackHandler{next: h.next.WithGroup(g)}
}

func stackOf(a slog.Attr) string {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			if s := stackOf(ga); s != "" {
				return s
			}
		}
		return ""
	}
	err, ok := v.Any().(error)
	if !ok || err == nil || errors.GetReportableStackTrace(err) == nil {
		return ""
	}
	// outermost layer first
	for _, d := range errors.GetAllSafeDetails(err) {
		for _, s := range d.SafeDetails {
			if s != "" {
				return s
			}
		}
	}
	return ""
}
