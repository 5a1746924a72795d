// Package slip provides the runner behind the `slip` verb.
package slip

import (
	"context"
	"errors"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/printers"
)

// Slip records a penalized unit against today, or takes one back.
type Slip struct {
	Service *app.Service
	Printer printers.PrettyPrint
	Undo    bool
	JSON    bool
}

func (s *Slip) Do(ctx context.Context) error {
	if s.Service == nil {
		return errors.New("slip: no service configured")
	}
	e, err := s.Service.Slip(ctx, s.Undo)
	if err != nil {
		return err
	}
	if s.JSON {
		return s.Printer.JSON(e)
	}
	s.Printer.Day(e)
	return nil
}
