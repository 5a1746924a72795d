// Package stats provides the runner behind the `stats` verb.
package stats

import (
	"context"
	"errors"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/printers"
)

// Stats prints the week strip and the aggregate statistics.
type Stats struct {
	Service *app.Service
	Printer printers.PrettyPrint
	JSON    bool
}

func (s *Stats) Do(ctx context.Context) error {
	if s.Service == nil {
		return errors.New("stats: no service configured")
	}
	st := s.Service.Stats(ctx)
	if s.JSON {
		return s.Printer.JSON(st)
	}
	pp := &s.Printer
	pp.NewLine()
	pp.Title("This week")
	pp.Week(st.Week)
	pp.NewLine()
	pp.Title("All time")
	pp.Power(st.Power)
	return nil
}
