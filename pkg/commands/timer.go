package commands

import (
	"context"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/commands/options"
	"tableflip.dev/habitdash/pkg/runner/timer"
)

func addTimer(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "timer",
		Aliases: []string{"t"},
		Short:   base.Wrap80("Run focus and break intervals. Without a subcommand, shows the timer."),
		Example: `
habitdash timer start
habitdash timer start --break
habitdash timer watch
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				s := timer.Status{Service: svc, JSON: output.JSON}
				return s.Do(ctx)
			})
		},
	}

	addTimerStart(cmd)
	addTimerSimple(cmd, "stop", "Pause the running interval", func(ctx context.Context, svc *app.Service) error {
		s := timer.Stop{Service: svc, JSON: output.JSON}
		return s.Do(ctx)
	})
	addTimerSimple(cmd, "status", "Show the timer", func(ctx context.Context, svc *app.Service) error {
		s := timer.Status{Service: svc, JSON: output.JSON}
		return s.Do(ctx)
	})
	addTimerSimple(cmd, "reset", "Abandon the interval and return to a fresh focus timer", func(ctx context.Context, svc *app.Service) error {
		r := timer.Reset{Service: svc, JSON: output.JSON}
		return r.Do(ctx)
	})
	addTimerWatch(cmd)

	topLevel.AddCommand(cmd)
}

func addTimerStart(parent *cobra.Command) {
	to := &options.TimerOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: base.Wrap80("Start a focus session or a break. A paused interval resumes where it stopped."),
		Example: `
habitdash timer start
habitdash timer start --for=50m
habitdash timer start --break
habitdash timer start --mode=break --for=10m
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := to.GetMode()
			if err != nil {
				return output.HandleError(err)
			}
			length, err := to.GetLength()
			if err != nil {
				return output.HandleError(err)
			}
			return run(false, func(ctx context.Context, svc *app.Service) error {
				s := timer.Start{Service: svc, Mode: mode, Length: length, JSON: output.JSON}
				return s.Do(ctx)
			})
		},
	}
	options.AddTimerArgs(cmd, to)

	parent.AddCommand(cmd)
}

func addTimerSimple(parent *cobra.Command, use, short string, fn func(ctx context.Context, svc *app.Service) error) {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, fn)
		},
	}

	parent.AddCommand(cmd)
}

func addTimerWatch(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: base.Wrap80("Show a live countdown that follows changes made from other terminals."),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(true, func(ctx context.Context, svc *app.Service) error {
				w := timer.Watch{Service: svc, JSON: output.JSON}
				return w.Do(ctx)
			})
		},
	}

	parent.AddCommand(cmd)
}
