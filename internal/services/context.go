package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	runDirKey    contextKey = "run_dir"
	requestIDKey contextKey = "request_id"
)

// WithSessionID annotates context with the transport-assigned user identity.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunDir annotates context with the run's storage directory.
func WithRunDir(ctx context.Context, dir string) context.Context {
	if dir == "" {
		return ctx
	}
	return context.WithValue(ctx, runDirKey, dir)
}

// RunDirFromContext returns the run directory if present.
func RunDirFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runDirKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
