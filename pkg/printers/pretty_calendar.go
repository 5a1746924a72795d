package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/score"
)

const width = len("11 12 13 14 15 16 17") // an example week

// Month prints a calendar for the month containing on. Qualifying days are
// bold, logged days plain and the rest faint.
func (pp *PrettyPrint) Month(on entry.Date, days ...entry.DailyLogEntry) {
	then := on.Time()
	marks := make([]int, DaysIn(then))
	for _, d := range days {
		t := d.Date.Time()
		if t.Year() != then.Year() || t.Month() != then.Month() {
			continue
		}
		switch {
		case score.Qualifies(d):
			marks[t.Day()-1] = 2
		case !d.IsEmpty():
			marks[t.Day()-1] = 1
		}
	}
	pp.PrintMonthMarks(then, marks)
}

// PrintMonthMarks draws the month grid; marks holds 0, 1 or 2 per day.
func (pp *PrettyPrint) PrintMonthMarks(then time.Time, marks []int) {
	w := pp.Writer()
	d := StartDay(then)

	tf := color.New(color.FgWhite, color.Italic)
	m := then.Month().String()
	mid := (width - len(m)) / 2
	_, _ = tf.Fprintf(w, "%s%s%s\n", strings.Repeat(" ", mid), m, strings.Repeat(" ", width-mid-len(m)))

	// Pad out the start of the month.
	_, _ = fmt.Fprint(w, strings.Repeat("   ", int(d-time.Sunday)))

	l0 := color.New(color.Faint, color.FgWhite)
	l1 := color.New(color.FgHiWhite)
	l2 := color.New(color.Bold, color.FgGreen)

	for i := 0; i < DaysIn(then); i++ {
		p := l0
		if i < len(marks) {
			switch marks[i] {
			case 1:
				p = l1
			case 2:
				p = l2
			}
		}
		_, _ = p.Fprintf(w, "%2d ", i+1)

		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = fmt.Fprint(w, "\n")
		}
	}
	_, _ = fmt.Fprint(w, "\n\n")
}

func DaysIn(then time.Time) int {
	return time.Date(then.Year(), then.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func StartDay(then time.Time) time.Weekday {
	return time.Date(then.Year(), then.Month(), 1, 1, 0, 0, 0, time.UTC).Weekday()
}
