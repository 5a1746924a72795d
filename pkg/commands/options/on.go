package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/habitdash/pkg/entry"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOShort = "1/2"
)

// OnOptions selects the day a command applies to.
type OnOptions struct {
	OnString string
}

func AddOnArgs(cmd *cobra.Command, o *OnOptions) {
	cmd.Flags().StringVar(&o.OnString, "on", "",
		`Specify a date, example: --on="2025-1-6" or --on="1/6". Defaults to today.`)
}

// GetOn resolves --on relative to now. Empty means today, returned as "".
// A month/day without a year means the most recent such day.
func (o *OnOptions) GetOn(now time.Time) (entry.Date, error) {
	if o.OnString == "" {
		return "", nil
	}
	t, err := time.Parse(layoutISO, o.OnString)
	if err != nil {
		t, err = time.Parse(layoutISOShort, o.OnString)
		if err != nil {
			return "", err
		}
		t = t.AddDate(now.Year(), 0, 0)
		// Habits are logged after the fact, so 12/30 typed on 1/2 means last year.
		if entry.DateOf(now).Before(entry.DateOf(t)) {
			t = t.AddDate(-1, 0, 0)
		}
	}
	return entry.DateOf(t), nil
}
