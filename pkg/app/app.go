// Package app wires the store, ledger, timer and habit manager into one
// Service shared by the CLI verbs and the live timer view.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/habitdash/pkg/clock"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/habit"
	"tableflip.dev/habitdash/pkg/ledger"
	"tableflip.dev/habitdash/pkg/score"
	"tableflip.dev/habitdash/pkg/store"
	"tableflip.dev/habitdash/pkg/streak"
	"tableflip.dev/habitdash/pkg/timer"
)

// ErrNoWatch is returned by Watch when the store cannot report changes.
var ErrNoWatch = errors.New("app: store does not support watching")

// Service provides the high-level operations behind every surface.
type Service struct {
	Store  store.Store
	Config store.Config
	Log    *zap.Logger

	Ledger *ledger.Engine
	Habits *habit.Manager
	Timer  *timer.Engine
	Streak *streak.Tracker

	// Resumed is what the timer reported when Init caught it up with the
	// clock. It carries StatusCompleted when an interval ended while no
	// process was running.
	Resumed timer.Snapshot

	detach func()
}

// Option configures a Service.
type Option func(*options)

type options struct {
	log   *zap.Logger
	clock clock.Clock
	ids   func() string
}

// WithLogger sets the logger handed to every engine.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock sets the clock handed to every engine.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithHabitIDs replaces the habit id generator.
func WithHabitIDs(fn func() string) Option {
	return func(o *options) { o.ids = fn }
}

// Open loads the on-disk store named by cfg and returns an initialized
// Service. When the store cannot be opened the service runs on an in-memory
// store so the session still works; nothing it records is kept.
func Open(ctx context.Context, cfg store.Config, opts ...Option) (*Service, error) {
	o := collect(opts)
	var s store.Store
	disk, err := store.Load(cfg)
	if err != nil {
		o.log.Error("store unavailable, changes will not be saved", zap.Error(err))
		s = store.NewMemory()
	} else {
		disk.SetLogger(o.log.Named("store"))
		s = disk
	}
	svc := New(s, cfg, opts...)
	if err := svc.Init(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// New wires a Service over s without touching storage. Call Init before use.
func New(s store.Store, cfg store.Config, opts ...Option) *Service {
	o := collect(opts)
	svc := &Service{
		Store:  s,
		Config: cfg,
		Log:    o.log,
	}
	svc.Ledger = ledger.New(s, ledger.WithLogger(o.log), ledger.WithClock(o.clock))
	svc.Streak = streak.NewTracker(s, o.log)
	svc.Timer = timer.New(s, svc.Ledger, timer.WithLogger(o.log), timer.WithClock(o.clock))
	habitOpts := []habit.Option{habit.WithLogger(o.log)}
	if o.ids != nil {
		habitOpts = append(habitOpts, habit.WithIDs(o.ids))
	}
	svc.Habits = habit.New(s, svc.Ledger, habitOpts...)
	return svc
}

func collect(opts []Option) options {
	o := options{log: zap.NewNop(), clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.clock == nil {
		o.clock = clock.Real()
	}
	return o
}

// Init subscribes the streak tracker, loads the habits (running any pending
// day rollover) and catches the timer up with the wall clock.
func (s *Service) Init(ctx context.Context) error {
	if s.detach == nil {
		s.detach = s.Streak.Attach(s.Ledger)
	}
	if err := s.Habits.Initialize(ctx); err != nil {
		return fmt.Errorf("app: load habits: %w", err)
	}
	s.Resumed = s.Timer.Load(ctx)
	return nil
}

// Close detaches observers. It is safe to call more than once.
func (s *Service) Close() {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}

// Today summarizes the current day.
type Today struct {
	Date       entry.Date              `json:"date"`
	Entry      entry.DailyLogEntry     `json:"entry"`
	Habits     []entry.HabitDefinition `json:"habits"`
	Score      int                     `json:"score"`
	Qualifying bool                    `json:"qualifying"`
	Streak     int                     `json:"streak"`
}

// Today returns the habits, ledger entry and scores for the current day.
func (s *Service) Today(ctx context.Context) Today {
	date := s.Ledger.Today()
	e := s.Ledger.Entry(ctx, date)
	return Today{
		Date:       date,
		Entry:      e,
		Habits:     s.Habits.List(),
		Score:      score.DailyScore(e),
		Qualifying: score.Qualifies(e),
		Streak:     score.CurrentStreakAsOf(s.Ledger.History(ctx), date),
	}
}

// Stats is the dashboard summary.
type Stats struct {
	Power  score.PowerStats `json:"power"`
	Week   []score.DayScore `json:"week"`
	Streak streak.Counter   `json:"counter"`
}

// Stats computes the dashboard metrics from the full history.
func (s *Service) Stats(ctx context.Context) Stats {
	history := s.Ledger.History(ctx)
	today := s.Ledger.Today()
	power := score.Power(history)
	power.CurrentStreak = score.CurrentStreakAsOf(history, today)
	return Stats{
		Power:  power,
		Week:   score.Week(history, today),
		Streak: s.Streak.Load(ctx),
	}
}

// Slip records one penalized unit against today, or removes one when undo
// is set.
func (s *Service) Slip(ctx context.Context, undo bool) (entry.DailyLogEntry, error) {
	delta := 1
	if undo {
		delta = -1
	}
	return s.Ledger.AdjustPenalized(ctx, s.Ledger.Today(), delta)
}

// StartTimer starts an interval. A zero length resumes a paused interval of
// the same mode, or else uses the configured default for mode.
func (s *Service) StartTimer(ctx context.Context, mode timer.Mode, length time.Duration) (timer.Snapshot, error) {
	if st := s.Timer.State(); length <= 0 && st.Paused() && st.Mode() == mode {
		return s.Timer.Start(ctx, mode, st.RemainingDurationSeconds)
	}
	if length <= 0 && s.Config != nil {
		switch mode {
		case timer.ModeBreak:
			length = s.Config.BreakDuration()
		default:
			length = s.Config.FocusDuration()
		}
	}
	return s.Timer.Start(ctx, mode, int(length/time.Second))
}

// Watch streams store change events from other processes.
func (s *Service) Watch(ctx context.Context) (<-chan store.Event, error) {
	w, ok := s.Store.(store.Watcher)
	if !ok {
		return nil, ErrNoWatch
	}
	return w.Watch(ctx)
}
