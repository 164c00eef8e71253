package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the fixed-shape records shared by the HTTP and
// budget layers.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.emit(ctx, slog.LevelInfo, "HTTP request started", f)
}

// LogHTTPEnd logs at WARN for 4xx and ERROR for 5xx responses.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	var level slog.Level
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	default:
		level = slog.LevelInfo
	}

	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.emit(ctx, level, "HTTP request completed", f)
}

// LogItemChanged records a create, update or delete of a budget item.
func (sl *StructuredLogger) LogItemChanged(ctx context.Context, op, userID, itemID, categoryID, itemType, amount, period, repeat string) {
	f := NewFields().
		WithUser(userID).
		WithItem(itemID, categoryID, itemType, amount, period, repeat).
		WithOperation(op).
		WithComponent(ComponentBudget)
	sl.emit(ctx, slog.LevelInfo, "Budget item "+op+"d", f)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	sl.emit(ctx, slog.LevelError, msg, fields.WithError(err).WithOperation(operation).WithComponent(component))
}

// emit prefers the component in fields over the logger's own.
func (sl *StructuredLogger) emit(ctx context.Context, level slog.Level, msg string, fields LogFields) {
	component := sl.logger.component
	if c, ok := fields[FieldComponent].(string); ok && c != "" {
		component = c
	}
	args := append([]any{FieldComponent, component}, fields.ToSlice()...)
	sl.logger.Logger.Log(ctx, level, msg, args...)
}
