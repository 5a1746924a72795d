package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/store"
)

// LastActiveDate reports the day the date guard last advanced to.
func (e *Engine) LastActiveDate(ctx context.Context) (entry.Date, bool) {
	var raw string
	if err := e.store.Get(ctx, store.KeyLastActiveDate, &raw); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.log.Warn("date guard unreadable", zap.Error(err))
		}
		return "", false
	}
	d, err := entry.ParseDate(raw)
	if err != nil {
		e.log.Warn("date guard malformed", zap.String("value", raw), zap.Error(err))
		return "", false
	}
	return d, true
}

// MarkActive advances the date guard to date without a rollover.
func (e *Engine) MarkActive(ctx context.Context, date entry.Date) error {
	if err := e.store.Set(ctx, store.KeyLastActiveDate, date.String()); err != nil {
		e.log.Error("date guard write failed", zap.Error(err))
		return fmt.Errorf("ledger: mark active: %w", err)
	}
	return nil
}

// RolloverDay finalizes previousDate once the clock has moved past it. The
// names of the completed habits are merged into previousDate's entry, the
// date guard advances to today and copies of habits with CompletedToday
// cleared are returned with rolled set.
//
// When the guard already reads today nothing is written and habits are
// returned untouched. On a failed write the guard stays put so the next call
// retries.
func (e *Engine) RolloverDay(ctx context.Context, previousDate entry.Date, habits []entry.HabitDefinition) (out []entry.HabitDefinition, rolled bool, err error) {
	today := e.Today()
	if guard, ok := e.LastActiveDate(ctx); ok && guard == today {
		return habits, false, nil
	}
	if previousDate == today {
		return habits, false, e.MarkActive(ctx, today)
	}

	if completed := entry.CompletedNames(habits); len(completed) > 0 && previousDate.Valid() {
		if _, err := e.update(ctx, previousDate, func(cur entry.DailyLogEntry) entry.DailyLogEntry {
			names := append(append([]string{}, cur.CompletedHabitNames...), completed...)
			return entry.New(previousDate, names, cur.FocusSessions, cur.PenalizedUnitCount)
		}); err != nil {
			return habits, false, err
		}
	}

	if err := e.MarkActive(ctx, today); err != nil {
		return habits, false, err
	}

	out = entry.CloneHabits(habits)
	for i := range out {
		out[i].CompletedToday = false
	}
	e.log.Info("rolled over day",
		zap.String("from", previousDate.String()),
		zap.String("to", today.String()))
	return out, true, nil
}
