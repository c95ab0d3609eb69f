package logging

import (
	"context"
	"log/slog"

	"reelpress/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID is the standardized structured logging key for the transport user identity.
	FieldSessionID = "session_id"
	// FieldRunDir is the standardized structured logging key for a run's storage directory.
	FieldRunDir = "run_dir"
	// FieldCorrelationID is the standardized structured logging key for event correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEvent is the standardized structured logging key for transport event kinds.
	FieldEvent = "event"
	// FieldState is the standardized structured logging key for session states.
	FieldState = "state"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if dir, ok := services.RunDirFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunDir, dir))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
