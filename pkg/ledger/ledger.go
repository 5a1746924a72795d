// Package ledger owns the date keyed history of daily activity. Every write to
// the ledger goes through Engine so the record for a day is always rebuilt in
// one place, and every write is announced to subscribed observers.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"tableflip.dev/habitdash/pkg/clock"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/store"
)

// Engine reads and writes the ledger stored under store.KeyLedger, merging in
// records from the legacy per-day keys on read.
type Engine struct {
	store store.Store
	clock clock.Clock
	log   *zap.Logger

	// mu serializes read-modify-write cycles within this process. Other
	// processes sharing the store are last-write-wins.
	mu sync.Mutex

	observers observers
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report degraded reads and failed writes.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the clock used to determine today's date.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// New returns an Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		clock: clock.Real(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("ledger")
	return e
}

// Today is the current calendar day according to the engine's clock.
func (e *Engine) Today() entry.Date {
	return entry.DateOf(e.clock.Now())
}

// RecordHabitCompletion replaces the entry for date with one built from the
// given values, persists the ledger and notifies observers. The returned
// entry is the normalized value that was written.
func (e *Engine) RecordHabitCompletion(ctx context.Context, date entry.Date, habitNames []string, focusSessions, penalizedCount int) (entry.DailyLogEntry, error) {
	return e.update(ctx, date, func(entry.DailyLogEntry) entry.DailyLogEntry {
		return entry.New(date, habitNames, focusSessions, penalizedCount)
	})
}

// IncrementFocusSessions adds one completed focus interval to date.
func (e *Engine) IncrementFocusSessions(ctx context.Context, date entry.Date) (entry.DailyLogEntry, error) {
	return e.update(ctx, date, func(cur entry.DailyLogEntry) entry.DailyLogEntry {
		return entry.New(date, cur.CompletedHabitNames, cur.FocusSessions+1, cur.PenalizedUnitCount)
	})
}

// AdjustPenalized changes the penalized unit count of date by delta, never
// going below zero.
func (e *Engine) AdjustPenalized(ctx context.Context, date entry.Date, delta int) (entry.DailyLogEntry, error) {
	return e.update(ctx, date, func(cur entry.DailyLogEntry) entry.DailyLogEntry {
		return entry.New(date, cur.CompletedHabitNames, cur.FocusSessions, cur.PenalizedUnitCount+delta)
	})
}

// SetCompletedHabits replaces the completed habit names of date, keeping its
// focus and penalized counts.
func (e *Engine) SetCompletedHabits(ctx context.Context, date entry.Date, habitNames []string) (entry.DailyLogEntry, error) {
	return e.update(ctx, date, func(cur entry.DailyLogEntry) entry.DailyLogEntry {
		return entry.New(date, habitNames, cur.FocusSessions, cur.PenalizedUnitCount)
	})
}

// ToggleHabit adds name to the completed habits of date, or removes it when
// already present. Matching is exact.
func (e *Engine) ToggleHabit(ctx context.Context, date entry.Date, name string) (entry.DailyLogEntry, error) {
	return e.update(ctx, date, func(cur entry.DailyLogEntry) entry.DailyLogEntry {
		names := make([]string, 0, len(cur.CompletedHabitNames)+1)
		found := false
		for _, n := range cur.CompletedHabitNames {
			if n == name {
				found = true
				continue
			}
			names = append(names, n)
		}
		if !found {
			names = append(names, name)
		}
		return entry.New(date, names, cur.FocusSessions, cur.PenalizedUnitCount)
	})
}

// update runs one read-modify-write cycle for date. Observers are notified
// after the lock is released so they may call back into the engine.
func (e *Engine) update(ctx context.Context, date entry.Date, fn func(cur entry.DailyLogEntry) entry.DailyLogEntry) (entry.DailyLogEntry, error) {
	if !date.Valid() {
		return entry.DailyLogEntry{}, fmt.Errorf("ledger: invalid date %q", date)
	}

	e.mu.Lock()
	unified := e.readUnified(ctx)
	cur := mergeDay(date, unified, e.readLegacy(ctx))
	next := fn(cur)
	next.Date = date
	// Names may be shared with the caller.
	next = next.Clone()
	unified[date] = next.Record()
	err := e.writeUnified(ctx, unified)
	e.mu.Unlock()

	if err != nil {
		e.log.Error("ledger write failed", zap.String("date", date.String()), zap.Error(err))
		return next, err
	}
	e.log.Debug("ledger updated",
		zap.String("date", date.String()),
		zap.Int("habits", next.HabitsCompleted),
		zap.Int("focus", next.FocusSessions),
		zap.Int("penalized", next.PenalizedUnitCount))

	e.observers.notify(ctx, e.log, Event{Date: date, Entry: next.Clone()})
	return next, nil
}

// LoadLedger returns every day on record. Legacy records are folded in with
// entry.Migrate; unreadable storage yields an empty ledger.
func (e *Engine) LoadLedger(ctx context.Context) map[entry.Date]entry.DailyLogEntry {
	e.mu.Lock()
	unified := e.readUnified(ctx)
	legacy := e.readLegacy(ctx)
	e.mu.Unlock()

	dates := make(map[entry.Date]struct{}, len(unified)+len(legacy))
	for d := range unified {
		dates[d] = struct{}{}
	}
	for d := range legacy {
		dates[d] = struct{}{}
	}

	out := make(map[entry.Date]entry.DailyLogEntry, len(dates))
	for d := range dates {
		out[d] = mergeDay(d, unified, legacy)
	}
	return out
}

// Entry returns the merged entry for date, or an empty one.
func (e *Engine) Entry(ctx context.Context, date entry.Date) entry.DailyLogEntry {
	if got, ok := e.LoadLedger(ctx)[date]; ok {
		return got
	}
	return entry.New(date, nil, 0, 0)
}

// History returns the ledger sorted by date, oldest first.
func (e *Engine) History(ctx context.Context) []entry.DailyLogEntry {
	all := e.LoadLedger(ctx)
	out := make([]entry.DailyLogEntry, 0, len(all))
	for _, v := range all {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func mergeDay(date entry.Date, unified map[entry.Date]entry.UnifiedRecord, legacy map[entry.Date][]entry.LegacyRecord) entry.DailyLogEntry {
	records := make([]entry.Record, 0, 1+len(legacy[date]))
	for _, r := range legacy[date] {
		records = append(records, r)
	}
	if u, ok := unified[date]; ok {
		records = append(records, u)
	}
	return entry.Migrate(date, records...)
}

// readUnified loads the unified ledger. A value that fails to decode is
// skipped on its own so one bad day does not hide the rest.
func (e *Engine) readUnified(ctx context.Context) map[entry.Date]entry.UnifiedRecord {
	out := make(map[entry.Date]entry.UnifiedRecord)

	var raw map[string]json.RawMessage
	if err := e.store.Get(ctx, store.KeyLedger, &raw); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.log.Warn("ledger unreadable, starting empty", zap.Error(err))
		}
		return out
	}

	for key, value := range raw {
		date, err := entry.ParseDate(key)
		if err != nil {
			e.log.Warn("skipping ledger key", zap.String("key", key), zap.Error(err))
			continue
		}
		var r entry.UnifiedRecord
		if err := json.Unmarshal(value, &r); err != nil {
			e.log.Warn("skipping malformed ledger entry", zap.String("date", key), zap.Error(err))
			continue
		}
		r.Date = date
		out[date] = r
	}
	return out
}

func (e *Engine) writeUnified(ctx context.Context, unified map[entry.Date]entry.UnifiedRecord) error {
	doc := make(map[string]entry.UnifiedRecord, len(unified))
	for d, r := range unified {
		doc[d.String()] = r
	}
	if err := e.store.Set(ctx, store.KeyLedger, doc); err != nil {
		return fmt.Errorf("ledger: persist: %w", err)
	}
	return nil
}

// readLegacy loads every legacy per-day record, grouped by the ISO date its
// label resolves to.
func (e *Engine) readLegacy(ctx context.Context) map[entry.Date][]entry.LegacyRecord {
	out := make(map[entry.Date][]entry.LegacyRecord)

	keys, err := e.store.Keys(ctx, store.PrefixLegacyDay)
	if err != nil {
		e.log.Warn("legacy records unreadable", zap.Error(err))
		return out
	}

	for _, key := range keys {
		date, err := entry.ParseLegacyLabel(strings.TrimPrefix(key, store.PrefixLegacyDay))
		if err != nil {
			e.log.Warn("skipping legacy key", zap.String("key", key), zap.Error(err))
			continue
		}
		var r entry.LegacyRecord
		if err := e.store.Get(ctx, key, &r); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				e.log.Warn("skipping legacy record", zap.String("key", key), zap.Error(err))
			}
			continue
		}
		out[date] = append(out[date], r)
	}
	return out
}
