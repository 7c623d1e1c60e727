// Package services defines shared utilities consumed by the matching pipeline,
// the scan tracker, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp frame sequence numbers, session IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is instead of inspecting messages.
//   - ErrSuperseded, the cancellation cause attached when a newer camera frame
//     replaces in-flight work. IsSuperseded separates it from genuine failures
//     so superseded work is dropped silently.
package services
