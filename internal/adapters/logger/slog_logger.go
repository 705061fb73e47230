package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-xray-sdk-go/xray"
	"pizza-authz/internal/domain"
)

type SlogLogger struct {
	logger *slog.Logger
}

// New logs JSON to stdout at the named level (debug, info, warn, error).
// Unknown names fall back to info.
func New(level string) *SlogLogger {
	return NewWithWriter(os.Stdout, ParseLevel(level))
}

func NewWithWriter(w io.Writer, level slog.Leveler) *SlogLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{logger: slog.New(h)}
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// enrich appends the X-Ray trace id and the authenticated user id when ctx
// carries them.
func (l *SlogLogger) enrich(ctx context.Context, args []any) []any {
	if ctx == nil {
		return args
	}
	if seg := xray.GetSegment(ctx); seg != nil && seg.TraceID != "" {
		args = append(args, "trace_id", seg.TraceID)
	}
	if id := domain.IdentityFrom(ctx); id != nil {
		args = append(args, "user_id", id.UserID)
	}
	return args
}

func (l *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, l.enrich(ctx, args)...)
}

func (l *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, l.enrich(ctx, args)...)
}

func (l *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, l.enrich(ctx, args)...)
}

func (l *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, l.enrich(ctx, args)...)
}
