// Package audit records security-relevant events as structured logs. A real
// deployment would fan these out to an event pipeline; the log form keeps
// the same shape.
package audit

import (
	"context"
	"log/slog"

	"github.com/innkeep/innkeep/pkg/slogx"
)

// Log writes events at info level through the request-scoped logger when the
// context carries one, so events pick up the request id stamped by the HTTP
// middleware.
type Log struct {
	fallback *slog.Logger
}

func New(logger *slog.Logger) *Log {
	return &Log{fallback: logger}
}

func (l *Log) Record(ctx context.Context, event string, attrs ...any) {
	logger := slogx.FromContext(ctx)
	if logger == slog.Default() && l.fallback != nil {
		logger = l.fallback
	}
	logger.With("component", "audit").Info(event, attrs...)
}
