package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/habitdash/pkg/timer"
	"tableflip.dev/habitdash/pkg/timeutil"
)

// TimerOptions
type TimerOptions struct {
	Break      bool
	ModeString string
	Length     string
}

func AddTimerArgs(cmd *cobra.Command, o *TimerOptions) {
	cmd.Flags().StringVar(&o.ModeString, "mode", string(timer.ModeFocus),
		`Interval kind, one of "focus" or "break".`)
	cmd.Flags().BoolVarP(&o.Break, "break", "b", false,
		`Start a break instead of a focus session. Same as --mode=break.`)
	cmd.Flags().StringVar(&o.Length, "for", "",
		`Interval length, example: --for=45m or --for=90 (seconds). Defaults to the configured length.`)
}

// GetMode resolves --mode. --break wins over it.
func (o *TimerOptions) GetMode() (timer.Mode, error) {
	m, err := timer.ParseMode(o.ModeString)
	if err != nil {
		return "", err
	}
	if o.Break {
		return timer.ModeBreak, nil
	}
	return m, nil
}

func (o *TimerOptions) GetLength() (time.Duration, error) {
	return timeutil.ParseLength(o.Length)
}
