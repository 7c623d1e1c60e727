package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"winelens/internal/logging"
	"winelens/internal/matching"
	"winelens/internal/recognizer"
	"winelens/internal/services"
	"winelens/internal/wine"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("tracker closed")

// Matcher is the part of the matching orchestrator the tracker drives.
type Matcher interface {
	MatchLocal(ctx context.Context, parsed matching.Parsed) *wine.MatchResult
	MatchRemote(ctx context.Context, parsed matching.Parsed) *wine.MatchResult
	MatchRemoteBatch(ctx context.Context, pending []matching.Parsed) map[string]*wine.MatchResult
	RemoteEnabled() bool
}

// SessionStore persists the current session and finished sessions.
type SessionStore interface {
	LoadCurrent(ctx context.Context) (*wine.Session, error)
	SaveCurrent(ctx context.Context, session *wine.Session) error
	ClearCurrent(ctx context.Context) error
	Archive(ctx context.Context, finished *wine.Session, endedAt time.Time, next *wine.Session) error
}

// Tracker merges per-frame results into the overlay and the session.
type Tracker struct {
	recognizer recognizer.Recognizer
	matcher    Matcher
	store      SessionStore
	opts       Options
	logger     *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	commands chan func()
	remote   chan remoteJob
	events   chan Event
	loops    sync.WaitGroup
	work     sync.WaitGroup
	closed   atomic.Bool

	mu      sync.RWMutex
	state   State
	overlay []wine.Recognized
	session *wine.Session

	frameMu     sync.Mutex
	frameCancel context.CancelCauseFunc
	lastFrame   time.Time
	frameSeq    atomic.Uint64

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// New builds a tracker, resumes the stored session if there is one, and
// starts its run loop and remote workers. store may be nil.
func New(rec recognizer.Recognizer, matcher Matcher, store SessionStore, opts Options, logger *slog.Logger) *Tracker {
	opts = opts.normalized()
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		recognizer: rec,
		matcher:    matcher,
		store:      store,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "scan"),
		ctx:        ctx,
		cancel:     cancel,
		commands:   make(chan func(), 16),
		remote:     make(chan remoteJob, opts.RemoteWorkers*4),
		events:     make(chan Event, opts.EventBuffer),
		state:      StateIdle,
		inflight:   make(map[string]struct{}),
	}
	t.session = t.resumeSession()

	t.loops.Add(1 + opts.RemoteWorkers)
	go t.run()
	for i := 0; i < opts.RemoteWorkers; i++ {
		go t.remoteWorker()
	}
	return t
}

func (t *Tracker) resumeSession() *wine.Session {
	if t.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		session, err := t.store.LoadCurrent(ctx)
		if err != nil {
			logging.WarnWithContext(t.logger, "failed to load saved session", "session_resume_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the session database under data_dir"),
				logging.String(logging.FieldImpact, "a new session was started"))
		}
		if session != nil {
			t.logger.Info("resumed scan session",
				logging.String(logging.FieldSessionID, session.ID),
				logging.Int("wine_count", len(session.Wines)))
			return session
		}
	}
	return wine.NewSession(t.opts.Clock(), t.opts.Location)
}

func (t *Tracker) run() {
	defer t.loops.Done()
	ticker := time.NewTicker(max(t.opts.OverlayTTL/2, 50*time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case cmd := <-t.commands:
			cmd()
		case <-ticker.C:
			t.mu.Lock()
			t.overlay = evictExpired(t.overlay, t.opts.Clock(), t.opts.OverlayTTL)
			t.mu.Unlock()
		}
	}
}

// submit queues fn on the run loop without waiting for it.
func (t *Tracker) submit(fn func()) bool {
	select {
	case t.commands <- fn:
		return true
	case <-t.ctx.Done():
		return false
	}
}

// do runs fn on the run loop and waits for it to finish.
func (t *Tracker) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case t.commands <- func() { fn(); close(done) }:
	case <-t.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-t.ctx.Done():
		return ErrClosed
	}
}

// Events delivers session changes. The channel is closed by Close. Events
// are dropped when the buffer is full.
func (t *Tracker) Events() <-chan Event {
	return t.events
}

func (t *Tracker) emit(eventType EventType, d wine.Recognized) {
	ev := Event{Type: eventType, SessionID: t.session.ID, Wine: d, At: t.opts.Clock()}
	select {
	case t.events <- ev:
	default:
		t.logger.Debug("event buffer full; dropping event", logging.String(logging.FieldEventType, string(eventType)))
	}
}

// State returns the lifecycle state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Start begins scanning from Idle or Stopped.
func (t *Tracker) Start() error {
	return t.transition("start", StateScanning, StateIdle, StateStopped)
}

// Pause suspends scanning and abandons the in-flight frame.
func (t *Tracker) Pause() error {
	if err := t.transition("pause", StatePaused, StateScanning); err != nil {
		return err
	}
	t.cancelFrame(nil)
	return nil
}

// Resume continues a paused scan.
func (t *Tracker) Resume() error {
	return t.transition("resume", StateScanning, StatePaused)
}

// Stop ends scanning, abandons the in-flight frame, and clears the overlay.
// The session is kept.
func (t *Tracker) Stop() error {
	if err := t.transition("stop", StateStopped, StateScanning, StatePaused); err != nil {
		return err
	}
	t.cancelFrame(nil)
	t.mu.Lock()
	t.overlay = nil
	t.mu.Unlock()
	return nil
}

func (t *Tracker) transition(op string, to State, from ...State) error {
	if t.closed.Load() {
		return ErrClosed
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range from {
		if t.state == s {
			t.logger.Debug("scan state changed",
				logging.String("from", t.state.String()),
				logging.String("to", to.String()))
			t.state = to
			return nil
		}
	}
	return services.Wrap(services.ErrValidation, "scan", op, "not allowed while "+t.state.String(), nil)
}

// Overlay returns the current transient detections, newest sightings kept.
func (t *Tracker) Overlay() []wine.Recognized {
	now := t.opts.Clock()
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]wine.Recognized, 0, len(t.overlay))
	for _, entry := range t.overlay {
		if now.Sub(entry.LastSeen) <= t.opts.OverlayTTL {
			out = append(out, entry)
		}
	}
	return out
}

// Session returns a copy of the current session.
func (t *Tracker) Session() *wine.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session.Clone()
}

// ClearSession discards the overlay and the session and starts fresh.
func (t *Tracker) ClearSession(ctx context.Context) error {
	var storeErr error
	err := t.do(ctx, func() {
		t.cancelFrame(services.ErrSuperseded)
		next := wine.NewSession(t.opts.Clock(), t.opts.Location)
		if t.store != nil {
			pctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := t.store.ClearCurrent(pctx); err != nil {
				storeErr = err
			} else if err := t.store.SaveCurrent(pctx, next); err != nil {
				storeErr = err
			}
		}
		t.mu.Lock()
		t.overlay = nil
		t.session = next
		t.mu.Unlock()
		t.emit(EventSessionReset, wine.Recognized{})
		t.logger.Info("scan session cleared", logging.String(logging.FieldSessionID, next.ID))
	})
	if err != nil {
		return err
	}
	if storeErr != nil {
		t.persistFailed(storeErr)
	}
	return nil
}

// SaveSessionToHistory archives the current session and starts a new one.
// When archiving fails the current session is kept and the error returned.
func (t *Tracker) SaveSessionToHistory(ctx context.Context) (*wine.Session, error) {
	var (
		finished *wine.Session
		archErr  error
	)
	err := t.do(ctx, func() {
		now := t.opts.Clock()
		next := wine.NewSession(now, t.opts.Location)
		current := t.session.Clone()
		if t.store != nil {
			pctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := t.store.Archive(pctx, current, now, next); err != nil {
				archErr = err
				return
			}
		}
		finished = current
		t.mu.Lock()
		t.overlay = nil
		t.session = next
		t.mu.Unlock()
		t.emit(EventSessionReset, wine.Recognized{})
		t.logger.Info("scan session archived",
			logging.String(logging.FieldSessionID, current.ID),
			logging.Int("wine_count", len(current.Wines)))
	})
	if err != nil {
		return nil, err
	}
	if archErr != nil {
		return nil, services.Wrap(services.ErrTransient, "scan", "save session", "archive", archErr)
	}
	return finished, nil
}

// Drain waits until every accepted frame and remote job has been merged.
// It must not overlap with SubmitFrame.
func (t *Tracker) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.work.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return t.do(ctx, func() {})
}

// Close stops all processing and closes the events channel.
func (t *Tracker) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.cancelFrame(nil)
	t.cancel()
	t.loops.Wait()

	done := make(chan struct{})
	go func() {
		t.work.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			close(t.events)
			return nil
		case job := <-t.remote:
			t.release(job.parsed)
			t.work.Done()
		}
	}
}

func (t *Tracker) sessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session.ID
}

// apply merges detections into the overlay and session. Runs on the loop.
func (t *Tracker) apply(detections []wine.Recognized) {
	if len(detections) == 0 {
		return
	}
	type change struct {
		kind EventType
		wine wine.Recognized
	}
	var changes []change

	t.mu.Lock()
	t.overlay = mergeOverlay(t.overlay, detections, t.opts.OverlapThreshold)
	t.overlay = evictExpired(t.overlay, t.opts.Clock(), t.opts.OverlayTTL)
	for _, d := range detections {
		if kind := accumulate(t.session, d); kind != "" {
			idx := t.session.IndexOf(d.WineID)
			changes = append(changes, change{kind: kind, wine: t.session.Wines[idx]})
		}
	}
	if len(changes) > 0 {
		t.session.UpdatedAt = t.opts.Clock()
	}
	snapshot := t.session.Clone()
	t.mu.Unlock()

	if len(changes) == 0 {
		return
	}
	t.persist(snapshot)
	for _, c := range changes {
		t.emit(c.kind, c.wine)
		if c.kind == EventNewMatch {
			t.logger.Info("wine added to session",
				logging.Args(logging.Match(c.wine.WineID, string(c.wine.Match.Tier), c.wine.Match.Confidence)...)...)
		}
	}
}

func (t *Tracker) persist(session *wine.Session) {
	if t.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := t.store.SaveCurrent(ctx, session); err != nil {
		t.persistFailed(err)
	}
}

func (t *Tracker) persistFailed(err error) {
	logging.WarnWithContext(t.logger, "failed to persist scan session", "session_persist_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check data_dir permissions and free space"),
		logging.String(logging.FieldImpact, "the session is kept in memory but may not survive a restart"))
}
