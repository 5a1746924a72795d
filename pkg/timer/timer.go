package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/habitdash/pkg/clock"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/store"
)

var (
	// ErrRunning is returned by Start while an interval is in progress.
	ErrRunning = errors.New("timer: already running")
	// ErrNotRunning is returned by Stop when no interval is in progress.
	ErrNotRunning = errors.New("timer: not running")
)

// FocusRecorder is credited with every completed focus interval.
type FocusRecorder interface {
	IncrementFocusSessions(ctx context.Context, date entry.Date) (entry.DailyLogEntry, error)
}

// Engine drives the timer state machine and persists it under
// store.KeyTimer on every transition.
type Engine struct {
	store    store.Store
	recorder FocusRecorder
	clock    clock.Clock
	log      *zap.Logger

	mu     sync.Mutex
	state  State
	loaded bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the wall clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an Engine. recorder may be nil, in which case completed focus
// intervals are not credited anywhere.
func New(s store.Store, recorder FocusRecorder, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		recorder: recorder,
		clock:    clock.Real(),
		log:      zap.NewNop(),
		state:    DefaultState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("timer")
	return e
}

// Load reads the persisted state, falling back to the default when it is
// missing or malformed, and immediately catches up with the wall clock.
func (e *Engine) Load(ctx context.Context) Snapshot {
	e.mu.Lock()
	e.loaded = false
	e.loadLocked(ctx)
	e.mu.Unlock()
	return e.OnResume(ctx)
}

// Start begins an interval of mode lasting durationSeconds, or the mode's
// default when durationSeconds is not positive.
func (e *Engine) Start(ctx context.Context, mode Mode, durationSeconds int) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadLocked(ctx)

	if e.state.IsRunning {
		return e.snapshotLocked(), ErrRunning
	}
	if durationSeconds <= 0 {
		durationSeconds = DefaultDuration(mode)
	}
	start := clock.EpochMillis(e.clock.Now())
	e.state = State{
		StartEpochMillis:         &start,
		RemainingDurationSeconds: durationSeconds,
		IsRunning:                true,
		IsBreakMode:              mode == ModeBreak,
	}
	e.persistLocked(ctx)
	e.log.Info("interval started", zap.String("mode", string(mode)), zap.Int("seconds", durationSeconds))
	return e.snapshotLocked(), nil
}

// Stop pauses the running interval, making the time left authoritative. A
// stop at or after the end of the interval completes it instead.
func (e *Engine) Stop(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	e.loadLocked(ctx)

	if !e.state.IsRunning {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrNotRunning
	}
	remaining := e.remainingLocked()
	if remaining == 0 {
		return e.expireLocked(ctx), nil
	}
	e.state = State{
		RemainingDurationSeconds: remaining,
		IsBreakMode:              e.state.IsBreakMode,
	}
	e.persistLocked(ctx)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.log.Info("interval paused", zap.String("mode", string(snap.Mode)), zap.Int("remaining", remaining))
	return snap, nil
}

// Tick recomputes the time left from the wall clock. It may be called at any
// cadence, redundantly, or after an arbitrarily long gap; the result depends
// only on the current time. The call that finds the interval over completes
// it and reports StatusCompleted.
func (e *Engine) Tick(ctx context.Context) Snapshot {
	e.mu.Lock()
	e.loadLocked(ctx)

	if e.state.IsRunning && e.remainingLocked() == 0 {
		return e.expireLocked(ctx)
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	return snap
}

// OnResume is called when the host becomes active again after being
// suspended or backgrounded.
func (e *Engine) OnResume(ctx context.Context) Snapshot {
	return e.Tick(ctx)
}

// Reset abandons any interval and returns to an idle focus timer.
func (e *Engine) Reset(ctx context.Context) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadLocked(ctx)
	e.state = DefaultState()
	e.persistLocked(ctx)
	return e.snapshotLocked()
}

// Snapshot reports the timer at the current instant without acting on expiry.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.state
	if out.StartEpochMillis != nil {
		start := *out.StartEpochMillis
		out.StartEpochMillis = &start
	}
	return out
}

// expireLocked finishes the running interval. It must be called with e.mu
// held and releases it before crediting the recorder.
func (e *Engine) expireLocked(ctx context.Context) Snapshot {
	mode := e.state.Mode()
	duration := e.state.RemainingDurationSeconds
	end := time.UnixMilli(*e.state.StartEpochMillis + int64(duration)*1000).In(e.clock.Now().Location())

	e.state = DefaultState()
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.log.Info("interval completed", zap.String("mode", string(mode)), zap.Time("ended", end))
	if mode == ModeFocus && e.recorder != nil {
		if _, err := e.recorder.IncrementFocusSessions(ctx, entry.DateOf(end)); err != nil {
			e.log.Error("crediting focus session failed", zap.Error(err))
		}
	}
	return Snapshot{Status: StatusCompleted, Mode: mode, Remaining: 0, Duration: duration}
}

// remainingLocked is max(0, duration - elapsed), with elapsed clamped to
// [0, duration] so clock skew never yields negative or excess time.
func (e *Engine) remainingLocked() int {
	if !e.state.IsRunning || e.state.StartEpochMillis == nil {
		return e.state.RemainingDurationSeconds
	}
	duration := e.state.RemainingDurationSeconds
	elapsed := (clock.EpochMillis(e.clock.Now()) - *e.state.StartEpochMillis) / 1000
	switch {
	case elapsed < 0:
		elapsed = 0
	case elapsed > int64(duration):
		elapsed = int64(duration)
	}
	return duration - int(elapsed)
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Mode:      e.state.Mode(),
		Remaining: e.remainingLocked(),
		Duration:  e.state.RemainingDurationSeconds,
	}
	if e.state.IsRunning {
		snap.Status = StatusRunning
		return snap
	}
	snap.Status = StatusIdle
	if d := DefaultDuration(snap.Mode); d > snap.Duration {
		snap.Duration = d
	}
	return snap
}

func (e *Engine) loadLocked(ctx context.Context) {
	if e.loaded {
		return
	}
	e.loaded = true

	var s State
	err := e.store.Get(ctx, store.KeyTimer, &s)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrMalformed):
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			e.log.Warn("timer state malformed, reseeding", zap.Error(err))
		}
		e.state = DefaultState()
		e.persistLocked(ctx)
		return
	case err != nil:
		e.log.Warn("timer state unreadable, using default", zap.Error(err))
		e.state = DefaultState()
		return
	}

	repaired, ok := s.repair()
	if !ok {
		e.log.Warn("timer state repaired", zap.Bool("running", s.IsRunning), zap.Int("remaining", s.RemainingDurationSeconds))
	}
	e.state = repaired
}

func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.store.Set(ctx, store.KeyTimer, e.state); err != nil {
		e.log.Error("timer state write failed", zap.Error(err))
	}
}
