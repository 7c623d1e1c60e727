package services

import "context"

type contextKey string

const (
	frameIDKey   contextKey = "frame_id"
	sessionIDKey contextKey = "session_id"
	requestIDKey contextKey = "request_id"
)

// WithFrameID annotates context with the tracker's frame sequence number.
func WithFrameID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, frameIDKey, id)
}

// FrameIDFromContext extracts the frame sequence number if present.
func FrameIDFromContext(ctx context.Context) (uint64, bool) {
	v := ctx.Value(frameIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case uint64:
		return val, true
	case int:
		return uint64(val), true
	default:
		return 0, false
	}
}

// WithSessionID annotates context with the scan session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the scan session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
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
