package log

import (
	"context"
	"log/slog"
)

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts an *slog.Logger to Logger. A nil logger means slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{logger: l}
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.logger.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.logger.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.logger.Warn(msg, fields...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.logger.Error(msg, fields...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: s.logger.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}
