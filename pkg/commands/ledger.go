package commands

import (
	"context"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/commands/options"
	"tableflip.dev/habitdash/pkg/runner/ledger"
	"tableflip.dev/habitdash/pkg/timeutil"
)

func addLedger(topLevel *cobra.Command) {
	var last string
	var month bool
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: base.Wrap80("Show logged days within a time window, or a month calendar."),
		Long: `Ledger lists every logged day within the window with its score.

Examples:
  habitdash ledger
  habitdash ledger --last 3d
  habitdash ledger --month --on=2024-12-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, label, err := timeutil.ParseWindow(last)
			if err != nil {
				return output.HandleError(err)
			}
			return run(false, func(ctx context.Context, svc *app.Service) error {
				if month {
					on, err := oo.GetOn(svc.Ledger.Today().Time())
					if err != nil {
						return err
					}
					m := ledger.Month{Service: svc, On: on}
					return m.Do(ctx)
				}
				r := ledger.Report{Service: svc, Window: window, Label: label, JSON: output.JSON}
				return r.Do(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&last, "last", timeutil.DefaultWindow, "time window to include (for example 3d, 1w)")
	cmd.Flags().BoolVarP(&month, "month", "m", false, "Show a calendar of the month instead.")
	options.AddOnArgs(cmd, oo)

	addLedgerMigrate(cmd)

	topLevel.AddCommand(cmd)
}

func addLedgerMigrate(parent *cobra.Command) {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: base.Wrap80("Fold records left by older releases into the ledger and remove them."),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				m := ledger.Migrate{Service: svc, DryRun: dryRun, JSON: output.JSON}
				return m.Do(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list what would be migrated.")

	parent.AddCommand(cmd)
}
