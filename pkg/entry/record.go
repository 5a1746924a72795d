package entry

import (
	"encoding/json"
	"strings"
)

// Record is a persisted day record in either the unified or the legacy
// format. The set of implementations is closed.
type Record interface {
	isRecord()
}

// UnifiedRecord is the wire form of a ledger value. Counters are pointers so
// an absent field can be told apart from zero.
type UnifiedRecord struct {
	Date                Date     `json:"date"`
	HabitsCompleted     *int     `json:"habitsCompleted,omitempty"`
	CompletedHabitNames []string `json:"completedHabitNames,omitempty"`
	FocusSessions       *int     `json:"focusSessions,omitempty"`
	PenalizedUnitCount  *int     `json:"penalizedUnitCount,omitempty"`
}

func (UnifiedRecord) isRecord() {}

// PenaltyStatus is the tri-state penalized-habit flag of legacy records.
type PenaltyStatus string

const (
	PenaltyUnknown PenaltyStatus = ""
	PenaltyClean   PenaltyStatus = "clean"
	PenaltySlipped PenaltyStatus = "slipped"
)

// Units maps the status onto a penalized unit count. ok is false when the
// status is unknown.
func (s PenaltyStatus) Units() (units int, ok bool) {
	switch s {
	case PenaltyClean:
		return 0, true
	case PenaltySlipped:
		return 1, true
	default:
		return 0, false
	}
}

// UnmarshalJSON accepts the status as a string, a boolean (true meaning a
// slip) or null. Unrecognised values decode as unknown.
func (s *PenaltyStatus) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		if v {
			*s = PenaltySlipped
		} else {
			*s = PenaltyClean
		}
	case string:
		switch PenaltyStatus(strings.ToLower(strings.TrimSpace(v))) {
		case PenaltyClean:
			*s = PenaltyClean
		case PenaltySlipped:
			*s = PenaltySlipped
		default:
			*s = PenaltyUnknown
		}
	default:
		*s = PenaltyUnknown
	}
	return nil
}

// LegacyRecord is the superseded per-day shape, stored under a key built
// from a locale formatted date label.
type LegacyRecord struct {
	Habits        []string      `json:"habits"`
	FocusSessions int           `json:"focusSessions"`
	PenaltyStatus PenaltyStatus `json:"penaltyStatus"`
	Completed     bool          `json:"completed"`
}

func (LegacyRecord) isRecord() {}

// Migrate folds every record found for date into one DailyLogEntry. Unified
// fields win; legacy focus and penalty values fill counters the unified
// record lacks, and legacy habit names are used only when the unified record
// carries neither names nor a count. Several legacy records for the same day
// are unioned first.
func Migrate(date Date, records ...Record) DailyLogEntry {
	var (
		unified *UnifiedRecord
		legacy  *LegacyRecord
	)
	for _, r := range records {
		switch r := r.(type) {
		case UnifiedRecord:
			u := r
			unified = &u
		case *UnifiedRecord:
			if r != nil {
				u := *r
				unified = &u
			}
		case LegacyRecord:
			legacy = unionLegacy(legacy, r)
		case *LegacyRecord:
			if r != nil {
				legacy = unionLegacy(legacy, *r)
			}
		}
	}

	switch {
	case unified == nil && legacy == nil:
		return New(date, nil, 0, 0)
	case unified == nil:
		penalized, _ := legacy.PenaltyStatus.Units()
		return New(date, legacy.Habits, legacy.FocusSessions, penalized)
	}

	out := DailyLogEntry{
		Date:                date,
		CompletedHabitNames: cloneStrings(unified.CompletedHabitNames),
	}
	if unified.HabitsCompleted != nil {
		out.HabitsCompleted = *unified.HabitsCompleted
	}
	if unified.FocusSessions != nil {
		out.FocusSessions = *unified.FocusSessions
	}
	if unified.PenalizedUnitCount != nil {
		out.PenalizedUnitCount = *unified.PenalizedUnitCount
	}

	if legacy != nil {
		if unified.FocusSessions == nil {
			out.FocusSessions = legacy.FocusSessions
		}
		if units, ok := legacy.PenaltyStatus.Units(); ok && unified.PenalizedUnitCount == nil {
			out.PenalizedUnitCount = units
		}
		if unified.CompletedHabitNames == nil && unified.HabitsCompleted == nil {
			out.CompletedHabitNames = cloneStrings(legacy.Habits)
			if out.CompletedHabitNames == nil {
				out.CompletedHabitNames = []string{}
			}
		}
	}
	return out.Normalize()
}

func unionLegacy(acc *LegacyRecord, r LegacyRecord) *LegacyRecord {
	if acc == nil {
		cp := r
		cp.Habits = cloneStrings(r.Habits)
		return &cp
	}
	acc.Habits = append(acc.Habits, r.Habits...)
	if r.FocusSessions > acc.FocusSessions {
		acc.FocusSessions = r.FocusSessions
	}
	if r.PenaltyStatus == PenaltySlipped || acc.PenaltyStatus == PenaltyUnknown {
		acc.PenaltyStatus = r.PenaltyStatus
	}
	acc.Completed = acc.Completed || r.Completed
	return acc
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}
