package app

import (
	"context"
	"time"

	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/score"
)

// ReportDay is one ledger day inside a report window.
type ReportDay struct {
	Entry      entry.DailyLogEntry `json:"entry"`
	Score      int                 `json:"score"`
	Qualifying bool                `json:"qualifying"`
}

// ReportResult summarizes the ledger between two dates, inclusive.
type ReportResult struct {
	Since entry.Date       `json:"since"`
	Until entry.Date       `json:"until"`
	Days  []ReportDay      `json:"days"`
	Stats score.PowerStats `json:"stats"`
	// Habits counts completions per habit name across the window.
	Habits map[string]int `json:"habits"`
}

// Report returns the logged days between since and until, oldest first.
func (s *Service) Report(ctx context.Context, since, until time.Time) ReportResult {
	if since.After(until) {
		since, until = until, since
	}
	from, to := entry.DateOf(since), entry.DateOf(until)

	var window []entry.DailyLogEntry
	for _, e := range s.Ledger.History(ctx) {
		if e.Date.Before(from) || to.Before(e.Date) {
			continue
		}
		window = append(window, e)
	}

	res := ReportResult{
		Since:  from,
		Until:  to,
		Days:   make([]ReportDay, 0, len(window)),
		Stats:  score.Power(window),
		Habits: make(map[string]int),
	}
	for _, e := range window {
		res.Days = append(res.Days, ReportDay{
			Entry:      e,
			Score:      score.DailyScore(e),
			Qualifying: score.Qualifies(e),
		})
		for _, name := range e.CompletedHabitNames {
			res.Habits[name]++
		}
	}
	return res
}
