// Package entry defines the persisted record shapes of habitdash: the daily
// ledger entry, its legacy predecessor and habit definitions.
package entry

import (
	"strings"
)

// DailyLogEntry is the canonical record of one day's activity.
type DailyLogEntry struct {
	Date                Date     `json:"date"`
	HabitsCompleted     int      `json:"habitsCompleted"`
	CompletedHabitNames []string `json:"completedHabitNames,omitempty"`
	FocusSessions       int      `json:"focusSessions"`
	PenalizedUnitCount  int      `json:"penalizedUnitCount"`
}

// New builds a normalized entry. The completed count always follows the
// names given.
func New(date Date, habitNames []string, focusSessions, penalizedCount int) DailyLogEntry {
	names := habitNames
	if names == nil {
		names = []string{}
	}
	return DailyLogEntry{
		Date:                date,
		CompletedHabitNames: names,
		FocusSessions:       focusSessions,
		PenalizedUnitCount:  penalizedCount,
	}.Normalize()
}

// Normalize clamps negative counters to zero and deduplicates the completed
// names, keeping the first occurrence. When names are present the completed
// count is recomputed from them.
func (e DailyLogEntry) Normalize() DailyLogEntry {
	out := e
	if e.CompletedHabitNames != nil {
		out.CompletedHabitNames = dedupe(e.CompletedHabitNames)
		out.HabitsCompleted = len(out.CompletedHabitNames)
	}
	out.HabitsCompleted = nonNegative(out.HabitsCompleted)
	out.FocusSessions = nonNegative(out.FocusSessions)
	out.PenalizedUnitCount = nonNegative(out.PenalizedUnitCount)
	return out
}

// IsEmpty reports whether the entry records no activity at all.
func (e DailyLogEntry) IsEmpty() bool {
	return e.HabitsCompleted == 0 &&
		len(e.CompletedHabitNames) == 0 &&
		e.FocusSessions == 0 &&
		e.PenalizedUnitCount == 0
}

// HasHabit reports whether name was completed on the entry's day.
func (e DailyLogEntry) HasHabit(name string) bool {
	for _, n := range e.CompletedHabitNames {
		if n == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of e.
func (e DailyLogEntry) Clone() DailyLogEntry {
	out := e
	if e.CompletedHabitNames != nil {
		out.CompletedHabitNames = append([]string{}, e.CompletedHabitNames...)
	}
	return out
}

// Record converts e into its wire form with every field present.
func (e DailyLogEntry) Record() UnifiedRecord {
	n := e.Normalize()
	return UnifiedRecord{
		Date:                n.Date,
		HabitsCompleted:     intPtr(n.HabitsCompleted),
		CompletedHabitNames: n.CompletedHabitNames,
		FocusSessions:       intPtr(n.FocusSessions),
		PenalizedUnitCount:  intPtr(n.PenalizedUnitCount),
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func intPtr(v int) *int {
	return &v
}
