// Package habits provides the runners behind the `habit` verbs.
package habits

import (
	"context"
	"errors"
	"fmt"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/entry"
	"tableflip.dev/habitdash/pkg/printers"
)

var errNoService = errors.New("habits: no service configured")

// List prints today's habits.
type List struct {
	Service *app.Service
	Printer printers.PrettyPrint
	JSON    bool
}

// Do prints the habit list with today's progress.
func (l *List) Do(ctx context.Context) error {
	if l.Service == nil {
		return errNoService
	}
	today := l.Service.Today(ctx)
	if l.JSON {
		return l.Printer.JSON(today)
	}
	show(&l.Printer, today)
	return nil
}

func show(pp *printers.PrettyPrint, today app.Today) {
	pp.NewLine()
	pp.TitleWithCount(today.Date.String(), len(entry.CompletedNames(today.Habits)), len(today.Habits))
	pp.Habits(today.Habits...)
	pp.Day(today.Entry)
	pp.NewLine()
}

// Add creates a habit.
type Add struct {
	Service *app.Service
	Printer printers.PrettyPrint
	Name    string
	JSON    bool
}

func (a *Add) Do(ctx context.Context) error {
	if a.Service == nil {
		return errNoService
	}
	h, err := a.Service.Habits.Add(ctx, a.Name)
	if err != nil {
		return err
	}
	return report(ctx, a.Service, &a.Printer, a.JSON, h)
}

// Rename renames the habit matching Ref.
type Rename struct {
	Service *app.Service
	Printer printers.PrettyPrint
	Ref     string
	Name    string
	JSON    bool
}

func (r *Rename) Do(ctx context.Context) error {
	if r.Service == nil {
		return errNoService
	}
	h, err := r.Service.Habits.Find(r.Ref)
	if err != nil {
		return err
	}
	h, err = r.Service.Habits.Rename(ctx, h.ID, r.Name)
	if err != nil {
		return err
	}
	return report(ctx, r.Service, &r.Printer, r.JSON, h)
}

// Remove deletes the habit matching Ref.
type Remove struct {
	Service *app.Service
	Printer printers.PrettyPrint
	Ref     string
	JSON    bool
}

func (r *Remove) Do(ctx context.Context) error {
	if r.Service == nil {
		return errNoService
	}
	h, err := r.Service.Habits.Find(r.Ref)
	if err != nil {
		return err
	}
	if err := r.Service.Habits.Remove(ctx, h.ID); err != nil {
		return err
	}
	return report(ctx, r.Service, &r.Printer, r.JSON, h)
}

// Icon moves the habit matching Ref to its next icon.
type Icon struct {
	Service *app.Service
	Printer printers.PrettyPrint
	Ref     string
	JSON    bool
}

func (i *Icon) Do(ctx context.Context) error {
	if i.Service == nil {
		return errNoService
	}
	h, err := i.Service.Habits.Find(i.Ref)
	if err != nil {
		return err
	}
	h, err = i.Service.Habits.CycleIcon(ctx, h.ID)
	if err != nil {
		return err
	}
	return report(ctx, i.Service, &i.Printer, i.JSON, h)
}

// Toggle flips the completion of the habits matching Refs on Date, or today
// when Date is empty.
type Toggle struct {
	Service *app.Service
	Printer printers.PrettyPrint
	Refs    []string
	Date    entry.Date
	JSON    bool
}

func (t *Toggle) Do(ctx context.Context) error {
	if t.Service == nil {
		return errNoService
	}
	if len(t.Refs) == 0 {
		return errors.New("habits: no habit given")
	}
	var last entry.DailyLogEntry
	for _, ref := range t.Refs {
		h, err := t.Service.Habits.Find(ref)
		if err != nil {
			return err
		}
		if last, err = t.Service.Habits.ToggleCompletion(ctx, h.ID, t.Date); err != nil {
			return fmt.Errorf("habits: toggle %q: %w", h.Name, err)
		}
	}
	if t.JSON {
		return t.Printer.JSON(last)
	}
	if t.Date != "" && t.Date != t.Service.Ledger.Today() {
		t.Printer.NewLine()
		t.Printer.Title(last.Date.String())
		t.Printer.Ledger(last)
		return nil
	}
	show(&t.Printer, t.Service.Today(ctx))
	return nil
}

func report(ctx context.Context, svc *app.Service, pp *printers.PrettyPrint, asJSON bool, h entry.HabitDefinition) error {
	if asJSON {
		return pp.JSON(h)
	}
	show(pp, svc.Today(ctx))
	return nil
}
