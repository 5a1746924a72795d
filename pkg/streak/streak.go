// Package streak keeps the persisted streak counter that advances the first
// time each day's score qualifies.
package streak

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/ledger"
	"tableflip.dev/habitdash/pkg/score"
	"tableflip.dev/habitdash/pkg/store"
)

// Counter is the running streak.
type Counter struct {
	CurrentStreakLength int        `json:"currentStreakLength"`
	LastQualifyingDate  entry.Date `json:"lastQualifyingDate,omitempty"`
}

// Advance returns the counter after date scored dailyScore. Only the first
// qualifying score of a day moves the counter: it extends the streak when
// the previous qualifying day was the day before and restarts it otherwise.
func (c Counter) Advance(date entry.Date, dailyScore int) (Counter, bool) {
	if dailyScore < score.QualifyingScore || date == c.LastQualifyingDate || !date.Valid() {
		return c, false
	}
	if date.Before(c.LastQualifyingDate) {
		// Late edits to past days do not rewind the counter.
		return c, false
	}
	next := Counter{CurrentStreakLength: 1, LastQualifyingDate: date}
	if c.LastQualifyingDate != "" && c.LastQualifyingDate.AddDays(1) == date {
		next.CurrentStreakLength = c.CurrentStreakLength + 1
	}
	return next, true
}

// Tracker persists a Counter under store.KeyStreak and the last qualifying
// date under store.KeyLastCompletedDate.
type Tracker struct {
	store store.Store
	log   *zap.Logger
	mu    sync.Mutex
}

// NewTracker returns a Tracker over s.
func NewTracker(s store.Store, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{store: s, log: log.Named("streak")}
}

// Load returns the persisted counter, or a zero counter when it is missing or
// unreadable.
func (t *Tracker) Load(ctx context.Context) Counter {
	var c Counter
	if err := t.store.Get(ctx, store.KeyStreak, &c); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.log.Warn("streak unreadable, starting at zero", zap.Error(err))
		}
		return Counter{}
	}
	if c.CurrentStreakLength < 0 {
		c.CurrentStreakLength = 0
	}
	return c
}

// Observe advances the counter for e and persists it when it moved.
func (t *Tracker) Observe(ctx context.Context, e entry.DailyLogEntry) (Counter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.Load(ctx)
	next, moved := cur.Advance(e.Date, score.DailyScore(e))
	if !moved {
		return cur, nil
	}
	if err := t.store.Set(ctx, store.KeyStreak, next); err != nil {
		t.log.Error("streak write failed", zap.Error(err))
		return cur, fmt.Errorf("streak: persist: %w", err)
	}
	if err := t.store.Set(ctx, store.KeyLastCompletedDate, next.LastQualifyingDate.String()); err != nil {
		t.log.Error("last completed date write failed", zap.Error(err))
		return next, fmt.Errorf("streak: persist last completed date: %w", err)
	}
	t.log.Info("streak advanced",
		zap.String("date", next.LastQualifyingDate.String()),
		zap.Int("length", next.CurrentStreakLength))
	return next, nil
}

// Attach subscribes t to every ledger write.
func (t *Tracker) Attach(l *ledger.Engine) (cancel func()) {
	return l.Subscribe(func(ctx context.Context, ev ledger.Event) {
		// Failures are logged by Observe.
		_, _ = t.Observe(ctx, ev.Entry)
	})
}
