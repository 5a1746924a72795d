package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/runner/stats"
)

func addStats(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show this week's scores and all-time statistics",
		Example: `
habitdash stats
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				s := stats.Stats{Service: svc, JSON: output.JSON}
				return s.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}
