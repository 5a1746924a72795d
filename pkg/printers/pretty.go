// Package printers renders habits, ledger days and timer state for the
// terminal.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/score"
	"tableflip.dev/habitdash/pkg/timer"
	"tableflip.dev/habitdash/pkg/timeutil"
)

type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
}

// Shortened habit ids are at most idWidth bytes.
const idWidth = 8

var spacing = strings.Repeat(" ", idWidth+2)

// Writer is where output goes.
func (pp *PrettyPrint) Writer() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.Writer())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.Writer(), spacing)
	}
	_, _ = t.Fprintln(pp.Writer(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, done, total int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.Writer(), spacing)
	}
	_, _ = t.Fprint(pp.Writer(), title)
	_, _ = c.Fprintf(pp.Writer(), " - %d/%d done\n", done, total)
}

// Habits prints one line per habit with its icon and today's state.
func (pp *PrettyPrint) Habits(habits ...entry.HabitDefinition) {
	if len(habits) == 0 {
		pp.none()
		return
	}

	t := color.New()
	done := color.New(color.FgGreen)
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)

	for _, h := range habits {
		if pp.ShowID {
			_, _ = y.Fprint(pp.Writer(), ShortID(h.ID))
			_, _ = y.Fprint(pp.Writer(), strings.Repeat(" ", len(spacing)-len(ShortID(h.ID))))
		}
		mark := "[ ]"
		p := t
		if h.CompletedToday {
			mark = "[x]"
			p = done
		}
		_, _ = p.Fprintf(pp.Writer(), "%s %s %s\n", mark, h.Icon.Symbol(), h.Name)
	}
	_, _ = t.Fprintln(pp.Writer())
}

// Day prints the summary line of one ledger entry.
func (pp *PrettyPrint) Day(e entry.DailyLogEntry) {
	s := score.DailyScore(e)
	p := color.New(color.Faint)
	if score.Qualifies(e) {
		p = color.New(color.FgGreen, color.Bold)
	}
	_, _ = p.Fprintf(pp.Writer(), "score %d", s)
	_, _ = fmt.Fprintf(pp.Writer(), "  habits %d  focus %d  slips %d\n",
		e.HabitsCompleted, e.FocusSessions, e.PenalizedUnitCount)
}

// Ledger prints a table of days, oldest first.
func (pp *PrettyPrint) Ledger(days ...entry.DailyLogEntry) {
	if len(days) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	good := color.New(color.FgGreen)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("Date"), bold.Sprint("Score"), bold.Sprint("Focus"), bold.Sprint("Slips"), bold.Sprint("Habits"))
	for _, d := range days {
		sc := fmt.Sprint(score.DailyScore(d))
		if score.Qualifies(d) {
			sc = good.Sprint(sc)
		}
		tbl.AddRow(d.Date, sc, d.FocusSessions, d.PenalizedUnitCount, strings.Join(d.CompletedHabitNames, ", "))
	}
	tbl.RightAlign(1)
	tbl.RightAlign(2)
	tbl.RightAlign(3)
	_, _ = fmt.Fprintln(pp.Writer(), tbl)
}

// Week prints the last seven days as a strip of scores.
func (pp *PrettyPrint) Week(week []score.DayScore) {
	faint := color.New(color.Faint)
	good := color.New(color.FgGreen, color.Bold)
	plain := color.New()

	for _, d := range week {
		_, _ = faint.Fprintf(pp.Writer(), "%-4s", d.Date.Time().Weekday().String()[:3])
	}
	_, _ = fmt.Fprintln(pp.Writer())
	for _, d := range week {
		p := plain
		switch {
		case !d.Logged:
			p = faint
		case d.Qualifying:
			p = good
		}
		_, _ = p.Fprintf(pp.Writer(), "%-4d", d.Score)
	}
	_, _ = fmt.Fprintln(pp.Writer())
}

// Power prints the aggregate statistics.
func (pp *PrettyPrint) Power(ps score.PowerStats) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Current streak"), plural(ps.CurrentStreak, "day"))
	tbl.AddRow(bold.Sprint("Longest streak"), plural(ps.LongestStreak, "day"))
	tbl.AddRow(bold.Sprint("Active days"), ps.ActiveDays)
	tbl.AddRow(bold.Sprint("Qualifying days"), ps.QualifyingDays)
	tbl.AddRow(bold.Sprint("Habits done"), ps.TotalHabits)
	tbl.AddRow(bold.Sprint("Focus sessions"), ps.TotalFocus)
	tbl.AddRow(bold.Sprint("Slips"), ps.TotalPenalized)
	tbl.AddRow(bold.Sprint("Average score"), fmt.Sprintf("%.1f", ps.AverageScore))
	if ps.BestDay != "" {
		tbl.AddRow(bold.Sprint("Best day"), fmt.Sprintf("%s (%d)", ps.BestDay, ps.BestScore))
	}
	tbl.AddRow(bold.Sprint("Clean days"), fmt.Sprintf("%.1f%%", ps.CleanDayPercent))
	_, _ = fmt.Fprintln(pp.Writer(), tbl)
}

// Timer prints a one-shot view of the timer.
func (pp *PrettyPrint) Timer(s timer.Snapshot) {
	var p *color.Color
	switch s.Status {
	case timer.StatusRunning:
		p = color.New(color.FgHiCyan, color.Bold)
	case timer.StatusCompleted:
		p = color.New(color.FgGreen, color.Bold)
	default:
		p = color.New(color.Faint)
	}
	_, _ = p.Fprintf(pp.Writer(), "%s %s", s.Mode, timeutil.Countdown(s.Remaining))
	_, _ = fmt.Fprintf(pp.Writer(), "  %s  %s\n", s.Status, Bar(s.Progress(), 20))
}

// Bar draws a text progress bar of the given width.
func Bar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// ShortID trims a habit id for display.
func ShortID(id string) string {
	if len(id) > idWidth {
		return id[:idWidth]
	}
	return id
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	if pp.ShowID {
		_, _ = f.Fprint(pp.Writer(), spacing)
	}
	_, _ = f.Fprint(pp.Writer(), " none\n\n")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
