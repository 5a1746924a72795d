package score

import (
	"tableflip.dev/habitdash/pkg/entry"
)

// DayScore is one day of the weekly overview.
type DayScore struct {
	Date       entry.Date `json:"date"`
	Score      int        `json:"score"`
	Qualifying bool       `json:"qualifying"`
	Logged     bool       `json:"logged"`
}

// Week returns the seven days ending at today, oldest first. Days without an
// entry score zero and are marked as not logged.
func Week(entries []entry.DailyLogEntry, today entry.Date) []DayScore {
	index := make(map[entry.Date]entry.DailyLogEntry)
	for _, e := range byDate(entries) {
		index[e.Date] = e
	}
	out := make([]DayScore, 0, 7)
	for i := -6; i <= 0; i++ {
		d := today.AddDays(i)
		e, ok := index[d]
		ds := DayScore{Date: d, Logged: ok && !e.IsEmpty()}
		if ok {
			ds.Score = DailyScore(e)
			ds.Qualifying = Qualifies(e)
		}
		out = append(out, ds)
	}
	return out
}

// PowerStats summarizes the whole ledger.
type PowerStats struct {
	ActiveDays      int        `json:"activeDays"`
	QualifyingDays  int        `json:"qualifyingDays"`
	TotalHabits     int        `json:"totalHabits"`
	TotalFocus      int        `json:"totalFocusSessions"`
	TotalPenalized  int        `json:"totalPenalizedUnits"`
	AverageScore    float64    `json:"averageScore"`
	BestDay         entry.Date `json:"bestDay,omitempty"`
	BestScore       int        `json:"bestScore"`
	CurrentStreak   int        `json:"currentStreak"`
	LongestStreak   int        `json:"longestStreak"`
	CleanDayPercent float64    `json:"cleanDayPercent"`
}

// Power computes PowerStats. Averages are taken over active days only.
func Power(entries []entry.DailyLogEntry) PowerStats {
	days := byDate(entries)
	ps := PowerStats{
		CurrentStreak:   CurrentStreak(days),
		LongestStreak:   LongestStreak(days),
		CleanDayPercent: CleanDayRate(days),
	}
	sum := 0
	for _, e := range days {
		if e.IsEmpty() {
			continue
		}
		s := DailyScore(e)
		ps.ActiveDays++
		ps.TotalHabits += e.HabitsCompleted
		ps.TotalFocus += e.FocusSessions
		ps.TotalPenalized += e.PenalizedUnitCount
		sum += s
		if s >= QualifyingScore {
			ps.QualifyingDays++
		}
		if ps.BestDay == "" || s > ps.BestScore {
			ps.BestDay, ps.BestScore = e.Date, s
		}
	}
	if ps.ActiveDays > 0 {
		ps.AverageScore = roundTenth(float64(sum) / float64(ps.ActiveDays))
	}
	return ps
}
