package scan

import (
	"context"
	"time"

	"winelens/internal/logging"
	"winelens/internal/matching"
	"winelens/internal/segment"
	"winelens/internal/services"
	"winelens/internal/wine"
)

type remoteJob struct {
	sessionID  string
	frameID    uint64
	candidates []wine.Candidate
	parsed     []matching.Parsed
}

// SubmitFrame accepts a live frame for processing. It reports false when the
// tracker is not scanning or the frame arrived within FrameInterval of the
// last accepted one. Accepting a frame supersedes the one still in flight.
func (t *Tracker) SubmitFrame(image []byte) bool {
	if t.State() != StateScanning {
		return false
	}
	t.frameMu.Lock()
	if t.closed.Load() {
		t.frameMu.Unlock()
		return false
	}
	now := t.opts.Clock()
	if !t.lastFrame.IsZero() && now.Sub(t.lastFrame) < t.opts.FrameInterval {
		t.frameMu.Unlock()
		return false
	}
	t.lastFrame = now
	if t.frameCancel != nil {
		t.frameCancel(services.ErrSuperseded)
	}
	id := t.frameSeq.Add(1)
	ctx, cancel := context.WithCancelCause(t.ctx)
	ctx = services.WithFrameID(ctx, id)
	ctx = services.WithSessionID(ctx, t.sessionID())
	t.frameCancel = cancel
	t.work.Add(1)
	t.frameMu.Unlock()

	go t.processFrame(ctx, cancel, id, image)
	return true
}

func (t *Tracker) cancelFrame(cause error) {
	t.frameMu.Lock()
	defer t.frameMu.Unlock()
	if t.frameCancel != nil {
		t.frameCancel(cause)
		t.frameCancel = nil
	}
}

func (t *Tracker) processFrame(ctx context.Context, cancel context.CancelCauseFunc, id uint64, image []byte) {
	defer t.work.Done()
	defer cancel(nil)
	logger := logging.WithContext(ctx, t.logger)

	fragments, err := t.recognizer.Recognize(ctx, image)
	if err != nil {
		if services.IsSuperseded(ctx, err) || services.IsCancellation(err) {
			return
		}
		logging.WarnWithContext(logger, "frame recognition failed", "frame_recognition_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "frame skipped"))
		return
	}
	if ctx.Err() != nil {
		return
	}

	candidates := segment.Segment(fragments, t.opts.Segmenter)
	now := t.opts.Clock()
	detections := make([]wine.Recognized, 0, len(candidates))
	var job remoteJob
	for _, c := range candidates {
		if ctx.Err() != nil {
			return
		}
		parsed := matching.Parse(c.Text)
		result := t.matcher.MatchLocal(ctx, parsed)
		if result == nil {
			job.candidates = append(job.candidates, c)
			job.parsed = append(job.parsed, parsed)
		}
		detections = append(detections, detection(c, parsed, result, now))
	}
	logger.Debug("frame processed",
		logging.Int("fragments", len(fragments)),
		logging.Int("candidates", len(candidates)),
		logging.Int("unmatched", len(job.parsed)))

	merged := false
	if err := t.do(context.Background(), func() {
		if ctx.Err() != nil {
			return
		}
		t.apply(detections)
		merged = true
	}); err != nil || !merged {
		return
	}

	if len(job.parsed) == 0 || !t.matcher.RemoteEnabled() {
		return
	}
	job.sessionID, _ = services.SessionIDFromContext(ctx)
	job.frameID = id
	t.dispatchRemote(job)
}

// dispatchRemote hands unmatched candidates to the remote workers, skipping
// texts already being looked up.
func (t *Tracker) dispatchRemote(job remoteJob) {
	t.inflightMu.Lock()
	var kept remoteJob
	kept.sessionID, kept.frameID = job.sessionID, job.frameID
	for i, p := range job.parsed {
		if _, busy := t.inflight[p.Original]; busy {
			continue
		}
		t.inflight[p.Original] = struct{}{}
		kept.candidates = append(kept.candidates, job.candidates[i])
		kept.parsed = append(kept.parsed, p)
	}
	t.inflightMu.Unlock()
	if len(kept.parsed) == 0 {
		return
	}

	t.work.Add(1)
	select {
	case t.remote <- kept:
	default:
		t.work.Done()
		t.release(kept.parsed)
		t.logger.Debug("remote backlog full; dropping lookups",
			logging.Uint64(logging.FieldFrameID, job.frameID),
			logging.Int("candidates", len(kept.parsed)))
	}
}

func (t *Tracker) release(parsed []matching.Parsed) {
	t.inflightMu.Lock()
	defer t.inflightMu.Unlock()
	for _, p := range parsed {
		delete(t.inflight, p.Original)
	}
}

func (t *Tracker) remoteWorker() {
	defer t.loops.Done()
	for {
		select {
		case <-t.ctx.Done():
			t.discardRemote()
			return
		case job := <-t.remote:
			t.runRemote(job)
		}
	}
}

func (t *Tracker) runRemote(job remoteJob) {
	defer t.work.Done()
	defer t.release(job.parsed)

	ctx := services.WithSessionID(services.WithFrameID(t.ctx, job.frameID), job.sessionID)
	results := t.matcher.MatchRemoteBatch(ctx, job.parsed)
	now := t.opts.Clock()
	var detections []wine.Recognized
	for i, p := range job.parsed {
		if result := results[p.Original]; result != nil {
			detections = append(detections, detection(job.candidates[i], p, result, now))
		}
	}
	if len(detections) == 0 {
		return
	}
	_ = t.do(context.Background(), func() {
		if t.session.ID != job.sessionID {
			return
		}
		t.apply(detections)
	})
}

// discardRemote releases queued jobs on shutdown so Close does not wait on them.
func (t *Tracker) discardRemote() {
	for {
		select {
		case job := <-t.remote:
			t.release(job.parsed)
			t.work.Done()
		default:
			return
		}
	}
}

// ProcessPhoto runs the whole pipeline for one still image, including the
// single remote tier, merges the results, and returns every detection.
func (t *Tracker) ProcessPhoto(ctx context.Context, image []byte) ([]wine.Recognized, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	ctx = services.WithSessionID(ctx, t.sessionID())
	fragments, err := t.recognizer.Recognize(ctx, image)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "scan", "recognize photo", "text recognition failed", err)
	}
	candidates := segment.Segment(fragments, t.opts.Segmenter)
	now := t.opts.Clock()
	detections := make([]wine.Recognized, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parsed := matching.Parse(c.Text)
		result := t.matcher.MatchLocal(ctx, parsed)
		if result == nil && t.matcher.RemoteEnabled() {
			result = t.matcher.MatchRemote(ctx, parsed)
		}
		detections = append(detections, detection(c, parsed, result, now))
	}
	if err := t.do(ctx, func() { t.apply(detections) }); err != nil {
		return nil, err
	}
	logging.WithContext(ctx, t.logger).Info("photo processed",
		logging.Int("candidates", len(candidates)),
		logging.Int("matched", countMatched(detections)))
	return detections, nil
}

func detection(c wine.Candidate, parsed matching.Parsed, result *wine.MatchResult, now time.Time) wine.Recognized {
	match := wine.NoMatch()
	if result != nil {
		match = *result
	}
	return wine.NewRecognized(c, match, parsed.Price, now)
}

func countMatched(detections []wine.Recognized) int {
	n := 0
	for _, d := range detections {
		if d.Matched() {
			n++
		}
	}
	return n
}
