// Package scan turns a stream of frames into the live overlay and the
// cumulative session list.
//
// A Tracker owns one run-loop goroutine. Every overlay and session mutation
// happens on that goroutine; readers take copies under an RWMutex.
//
// Each submitted frame cancels the previous frame's context with cause
// services.ErrSuperseded, so stale recognition and local matching stop early.
// Candidates still unmatched after the local tiers are handed to a pool of
// remote workers that run under the tracker's own lifetime, not the frame's,
// and report back through the run loop.
//
// Overlay merge keys on bounding-box overlap; session accumulation keys on the
// matched record id. Both keep the better match and are idempotent.
package scan
