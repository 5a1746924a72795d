package commands

import (
	"context"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/runner/slip"
)

func addSlip(topLevel *cobra.Command) {
	var undo bool

	cmd := &cobra.Command{
		Use:   "slip",
		Short: base.Wrap80("Record a slip against today. Each slip costs one point."),
		Example: `
habitdash slip
habitdash slip --undo
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				s := slip.Slip{Service: svc, Undo: undo, JSON: output.JSON}
				return s.Do(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Take back one slip.")

	topLevel.AddCommand(cmd)
}
