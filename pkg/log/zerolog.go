package log

import (
	"context"
	"fmt"
	"io"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/rs/zerolog"
)

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a Logger writing through zerolog. When console is
// true, output goes through zerolog.ConsoleWriter for humans; otherwise it is
// one JSON object per line.
func NewZerologLogger(w io.Writer, level Level, console bool) Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{logger: zl}
}

// InstallWarnings routes errors.Warn through this logger. Warnings that
// implement zerolog.LogObjectMarshaler keep their structured fields.
func InstallWarnings(l Logger) {
	zl, ok := l.(*zerologLogger)
	if !ok {
		errors.SetWarningHandler(func(w error) { l.Warn(w.Error()) })
		return
	}
	errors.SetZerologWarnFunc(func(w error) {
		ev := zl.logger.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(w.Error())
	})
}

func (z *zerologLogger) Debug(msg string, fields ...any) { z.emit(z.logger.Debug(), msg, fields) }
func (z *zerologLogger) Info(msg string, fields ...any)  { z.emit(z.logger.Info(), msg, fields) }
func (z *zerologLogger) Warn(msg string, fields ...any)  { z.emit(z.logger.Warn(), msg, fields) }
func (z *zerologLogger) Error(msg string, fields ...any) { z.emit(z.logger.Error(), msg, fields) }

func (z *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{logger: z.logger.With().Fields(pairs(fields)).Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.logger.GetLevel() <= toZerologLevel(level)
}

func (z *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
			var m zerolog.LogObjectMarshaler
			if errors.As(v, &m) {
				ev = ev.Object(key+"_detail", m)
			}
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

// pairs turns alternating key/value fields into a map for zerolog.Context.Fields.
func pairs(fields []any) map[string]interface{} {
	m := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		m[fmt.Sprintf("%v", fields[i])] = fields[i+1]
	}
	return m
}

func toZerologLevel(l Level) zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
