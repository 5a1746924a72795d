package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/store"
)

// LegacyKey is one legacy per-day record still present in the store.
type LegacyKey struct {
	Key  string
	Date entry.Date
	// Err is set when the record cannot be folded in; such keys are left in
	// place by Compact.
	Err error
}

// LegacyKeys lists the legacy per-day records in key order.
func (e *Engine) LegacyKeys(ctx context.Context) ([]LegacyKey, error) {
	keys, err := e.store.Keys(ctx, store.PrefixLegacyDay)
	if err != nil {
		return nil, fmt.Errorf("ledger: list legacy keys: %w", err)
	}
	out := make([]LegacyKey, 0, len(keys))
	for _, key := range keys {
		lk := LegacyKey{Key: key}
		lk.Date, lk.Err = entry.ParseLegacyLabel(strings.TrimPrefix(key, store.PrefixLegacyDay))
		if lk.Err == nil {
			var r entry.LegacyRecord
			lk.Err = e.store.Get(ctx, key, &r)
		}
		out = append(out, lk)
	}
	return out, nil
}

// Compact folds every readable legacy per-day record into the unified ledger
// and then removes those legacy keys. Reads return the same entries before
// and after. It returns the keys that were removed.
func (e *Engine) Compact(ctx context.Context) ([]string, error) {
	legacyKeys, err := e.LegacyKeys(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	unified := e.readUnified(ctx)
	legacy := make(map[entry.Date][]entry.LegacyRecord)
	var folded []string
	for _, lk := range legacyKeys {
		if lk.Err != nil {
			e.log.Warn("leaving legacy record in place", zap.String("key", lk.Key), zap.Error(lk.Err))
			continue
		}
		var r entry.LegacyRecord
		if err := e.store.Get(ctx, lk.Key, &r); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				e.log.Warn("leaving legacy record in place", zap.String("key", lk.Key), zap.Error(err))
			}
			continue
		}
		legacy[lk.Date] = append(legacy[lk.Date], r)
		folded = append(folded, lk.Key)
	}
	if len(folded) == 0 {
		e.mu.Unlock()
		return nil, nil
	}

	for date := range legacy {
		unified[date] = mergeDay(date, unified, legacy).Record()
	}
	if err := e.writeUnified(ctx, unified); err != nil {
		e.mu.Unlock()
		e.log.Error("ledger write failed", zap.Error(err))
		return nil, err
	}

	removed := make([]string, 0, len(folded))
	for _, key := range folded {
		if err := e.store.Remove(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
			// The record is already folded in, so a leftover key reads the same.
			e.log.Warn("legacy key not removed", zap.String("key", key), zap.Error(err))
			continue
		}
		removed = append(removed, key)
	}
	e.mu.Unlock()

	e.log.Info("compacted legacy ledger", zap.Int("days", len(legacy)), zap.Int("keys", len(removed)))
	return removed, nil
}
