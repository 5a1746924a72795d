// Package score derives scores and streaks from ledger history. Every
// function is pure: it sorts and deduplicates its own input and never touches
// storage.
package score

import (
	"math"
	"sort"

	"tableflip.dev/habitdash/pkg/entry"
)

// QualifyingScore is the minimum daily score of a successful day.
const QualifyingScore = 3

const (
	habitWeight   = 2
	focusWeight   = 1
	penaltyWeight = 1
)

// DailyScore weighs a day's activity: two points per habit, one per focus
// session, minus one per penalized unit.
func DailyScore(e entry.DailyLogEntry) int {
	return e.HabitsCompleted*habitWeight + e.FocusSessions*focusWeight - e.PenalizedUnitCount*penaltyWeight
}

// Qualifies reports whether e is a successful day.
func Qualifies(e entry.DailyLogEntry) bool {
	return DailyScore(e) >= QualifyingScore
}

// CurrentStreak counts consecutive qualifying days ending at the most recent
// entry. A non-qualifying day or a missing calendar day ends the streak, and
// a most recent entry that does not qualify yet yields zero. Days without any
// recorded activity count as missing, not as failing.
func CurrentStreak(entries []entry.DailyLogEntry) int {
	days := byDate(entries)
	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		if !Qualifies(days[i]) {
			break
		}
		if i < len(days)-1 && days[i].Date.AddDays(1) != days[i+1].Date {
			break
		}
		streak++
	}
	return streak
}

// CurrentStreakAsOf is CurrentStreak for a dashboard showing today: a run
// whose last active day is older than yesterday has lapsed and yields zero.
func CurrentStreakAsOf(entries []entry.DailyLogEntry, today entry.Date) int {
	days := byDate(entries)
	if len(days) == 0 || days[len(days)-1].Date.Before(today.AddDays(-1)) {
		return 0
	}
	return CurrentStreak(days)
}

// LongestStreak is the longest run of consecutive qualifying days.
func LongestStreak(entries []entry.DailyLogEntry) int {
	days := byDate(entries)
	longest, run := 0, 0
	for i, d := range days {
		switch {
		case !Qualifies(d):
			run = 0
			continue
		case i > 0 && days[i-1].Date.AddDays(1) == d.Date && Qualifies(days[i-1]):
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// CleanDayRate is the percentage, rounded to one decimal, of active days with
// no penalized units. Days without any recorded activity are left out; with
// no active days the rate is zero.
func CleanDayRate(entries []entry.DailyLogEntry) float64 {
	total, clean := 0, 0
	for _, e := range byDate(entries) {
		if e.IsEmpty() {
			continue
		}
		total++
		if e.PenalizedUnitCount == 0 {
			clean++
		}
	}
	if total == 0 {
		return 0
	}
	return roundTenth(float64(clean) / float64(total) * 100)
}

// byDate normalizes, deduplicates and sorts entries oldest first, dropping
// days without any recorded activity. When a date repeats, the higher scoring
// entry is kept so the outcome does not depend on input order.
func byDate(entries []entry.DailyLogEntry) []entry.DailyLogEntry {
	best := make(map[entry.Date]entry.DailyLogEntry, len(entries))
	for _, e := range entries {
		e = e.Normalize()
		if e.IsEmpty() {
			continue
		}
		if cur, ok := best[e.Date]; ok && !better(e, cur) {
			continue
		}
		best[e.Date] = e
	}
	out := make([]entry.DailyLogEntry, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// better is a total order over entries sharing a date.
func better(a, b entry.DailyLogEntry) bool {
	if sa, sb := DailyScore(a), DailyScore(b); sa != sb {
		return sa > sb
	}
	if a.HabitsCompleted != b.HabitsCompleted {
		return a.HabitsCompleted > b.HabitsCompleted
	}
	if a.FocusSessions != b.FocusSessions {
		return a.FocusSessions > b.FocusSessions
	}
	return a.PenalizedUnitCount < b.PenalizedUnitCount
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
