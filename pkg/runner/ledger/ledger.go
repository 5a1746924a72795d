// Package ledger provides the runners behind the `ledger` verb.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/printers"
)

var errNoService = errors.New("ledger: no service configured")

// Report prints the days logged within the last Window.
type Report struct {
	Service *app.Service
	Printer printers.PrettyPrint
	Window  time.Duration
	// Label is the canonical spelling of Window.
	Label string
	Now   func() time.Time
	JSON  bool
}

func (r *Report) Do(ctx context.Context) error {
	if r.Service == nil {
		return errNoService
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	until := now()
	res := r.Service.Report(ctx, until.Add(-r.Window), until)
	if r.JSON {
		return r.Printer.JSON(res)
	}

	pp := &r.Printer
	pp.NewLine()
	pp.Title(fmt.Sprintf("Last %s (%s to %s)", r.Label, res.Since, res.Until))
	days := make([]entry.DailyLogEntry, 0, len(res.Days))
	for _, d := range res.Days {
		days = append(days, d.Entry)
	}
	pp.Ledger(days...)
	if len(res.Habits) > 0 {
		names := make([]string, 0, len(res.Habits))
		for n := range res.Habits {
			names = append(names, n)
		}
		sort.Slice(names, func(i, j int) bool {
			if res.Habits[names[i]] != res.Habits[names[j]] {
				return res.Habits[names[i]] > res.Habits[names[j]]
			}
			return names[i] < names[j]
		})
		f := color.New(color.Faint)
		for _, n := range names {
			_, _ = f.Fprintf(pp.Writer(), "%4d  %s\n", res.Habits[n], n)
		}
		pp.NewLine()
	}
	return nil
}

// Month prints a calendar of the month containing On.
type Month struct {
	Service *app.Service
	Printer printers.PrettyPrint
	On      entry.Date
}

func (m *Month) Do(ctx context.Context) error {
	if m.Service == nil {
		return errNoService
	}
	on := m.On
	if on == "" {
		on = m.Service.Ledger.Today()
	}
	m.Printer.NewLine()
	m.Printer.Month(on, m.Service.Ledger.History(ctx)...)
	return nil
}

// Migrate folds legacy per-day records into the ledger. With DryRun set it
// only lists them.
type Migrate struct {
	Service *app.Service
	Printer printers.PrettyPrint
	DryRun  bool
	JSON    bool
}

func (m *Migrate) Do(ctx context.Context) error {
	if m.Service == nil {
		return errNoService
	}
	if m.DryRun {
		plan, err := m.Service.MigrationCandidates(ctx)
		if err != nil {
			return err
		}
		if m.JSON {
			return m.Printer.JSON(plan)
		}
		for _, k := range plan.Pending {
			if k.Err != nil {
				_, _ = fmt.Fprintf(m.Printer.Writer(), "skip  %s: %v\n", k.Key, k.Err)
				continue
			}
			_, _ = fmt.Fprintf(m.Printer.Writer(), "fold  %s -> %s\n", k.Key, k.Date)
		}
		return nil
	}

	removed, err := m.Service.Migrate(ctx)
	if err != nil {
		return err
	}
	if m.JSON {
		return m.Printer.JSON(map[string]any{"migrated": removed})
	}
	_, _ = fmt.Fprintf(m.Printer.Writer(), "migrated %d legacy records\n", len(removed))
	return nil
}
