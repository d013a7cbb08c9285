package eventsink

import (
	"context"
	"log/slog"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
)

type logSink struct {
	logger *slog.Logger
}

// NewLogSink writes every event as one structured log line
func NewLogSink(logger *slog.Logger) port.EventSink {
	return &logSink{logger: logger}
}

func (s *logSink) Publish(ctx context.Context, ev domain.Event) {
	level := slog.LevelInfo
	switch ev.Type {
	case domain.EventClientConnected:
		level = slog.LevelDebug
	case domain.EventTransferFailed:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("session", ev.SessionID.String()),
		slog.String("mode", string(ev.Mode)),
	}
	if ev.Remote != "" {
		attrs = append(attrs, slog.String("remote", ev.Remote))
	}
	if ev.Route != "" {
		attrs = append(attrs, slog.String("route", ev.Route))
	}
	if ev.File != "" {
		attrs = append(attrs, slog.String("file", ev.File), slog.Int64("bytes", ev.Bytes))
	}
	if ev.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", ev.Duration))
	}
	if ev.State != "" {
		attrs = append(attrs, slog.String("state", string(ev.State)))
	}
	if ev.Error != "" {
		attrs = append(attrs, slog.String("error", ev.Error))
	}
	s.logger.LogAttrs(ctx, level, string(ev.Type), attrs...)
}
