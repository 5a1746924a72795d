package timer

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/printers"
)

// Watch runs the live countdown until the user quits. Off a terminal it
// prints the timer once instead.
type Watch struct {
	Service *app.Service
	Printer printers.PrettyPrint
	JSON    bool
	// Interactive overrides terminal detection.
	Interactive func() bool
}

func (w *Watch) Do(ctx context.Context) error {
	if w.Service == nil {
		return errNoService
	}
	interactive := w.Interactive
	if interactive == nil {
		interactive = stdoutIsTerminal
	}
	if w.JSON || !interactive() {
		s := Status{Service: w.Service, Printer: w.Printer, JSON: w.JSON}
		return s.Do(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(NewModel(ctx, w.Service),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
