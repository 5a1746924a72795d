// Package timer provides the runners behind the `timer` verbs, including the
// live countdown view.
package timer

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/printers"
	"tableflip.dev/habitdash/pkg/timer"
)

var errNoService = errors.New("timer: no service configured")

// Start begins a focus or break interval.
type Start struct {
	Service *app.Service
	Printer printers.PrettyPrint
	Mode    timer.Mode
	// Length of zero uses the configured default for Mode.
	Length time.Duration
	JSON   bool
}

func (s *Start) Do(ctx context.Context) error {
	if s.Service == nil {
		return errNoService
	}
	snap, err := s.Service.StartTimer(ctx, s.Mode, s.Length)
	if err != nil {
		return err
	}
	return show(&s.Printer, s.JSON, snap)
}

// Stop pauses the running interval.
type Stop struct {
	Service *app.Service
	Printer printers.PrettyPrint
	JSON    bool
}

func (s *Stop) Do(ctx context.Context) error {
	if s.Service == nil {
		return errNoService
	}
	snap, err := s.Service.Timer.Stop(ctx)
	if err != nil {
		return err
	}
	return show(&s.Printer, s.JSON, snap)
}

// Status prints the timer once. Loading the service already caught the timer
// up with the clock, so an interval that ended while nothing was watching is
// credited before this runs.
type Status struct {
	Service *app.Service
	Printer printers.PrettyPrint
	JSON    bool
}

func (s *Status) Do(ctx context.Context) error {
	if s.Service == nil {
		return errNoService
	}
	snap := s.Service.Timer.OnResume(ctx)
	if snap.Status == timer.StatusIdle && s.Service.Resumed.Status == timer.StatusCompleted {
		snap = s.Service.Resumed
	}
	return show(&s.Printer, s.JSON, snap)
}

// Reset abandons any interval.
type Reset struct {
	Service *app.Service
	Printer printers.PrettyPrint
	JSON    bool
}

func (r *Reset) Do(ctx context.Context) error {
	if r.Service == nil {
		return errNoService
	}
	return show(&r.Printer, r.JSON, r.Service.Timer.Reset(ctx))
}

func show(pp *printers.PrettyPrint, asJSON bool, snap timer.Snapshot) error {
	if asJSON {
		return pp.JSON(snap)
	}
	pp.Timer(snap)
	return nil
}
