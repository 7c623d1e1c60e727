package logging

import (
	"context"
	"log/slog"

	"winelens/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldFrameID is the standardized key for tracker frame sequence numbers.
	FieldFrameID = "frame_id"
	// FieldSessionID is the standardized key for scan session identifiers.
	FieldSessionID = "session_id"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldCandidate carries the candidate text being matched.
	FieldCandidate = "candidate"
	// FieldTier names the matching tier that produced a result.
	FieldTier = "tier"
	// FieldWineID carries a wine record identifier.
	FieldWineID = "wine_id"
	// FieldConfidence carries a match confidence in [0,1].
	FieldConfidence = "confidence"
	FieldEventType  = "event_type"
	FieldErrorHint  = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.FrameIDFromContext(ctx); ok {
		fields = append(fields, slog.Uint64(FieldFrameID, id))
	}
	if sid, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, sid))
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
