package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/commands/options"
	"tableflip.dev/habitdash/pkg/printers"
	"tableflip.dev/habitdash/pkg/runner/habits"
)

func addHabit(topLevel *cobra.Command) {
	ido := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "habit",
		Aliases: []string{"habits", "h"},
		Short:   base.Wrap80("List and edit habits. Without a subcommand, lists today's habits."),
		Example: `
habitdash habit
habitdash habit add Stretch
habitdash habit toggle read
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				l := habits.List{
					Service: svc,
					Printer: printers.PrettyPrint{ShowID: ido.ShowID},
					JSON:    output.JSON,
				}
				return l.Do(ctx)
			})
		},
	}
	options.AddShowIDArgs(cmd, ido)

	addHabitList(cmd)
	addHabitAdd(cmd)
	addHabitRename(cmd)
	addHabitRemove(cmd)
	addHabitIcon(cmd)
	addHabitToggle(cmd)

	topLevel.AddCommand(cmd)
}

func addHabitList(parent *cobra.Command) {
	ido := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List today's habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				l := habits.List{
					Service: svc,
					Printer: printers.PrettyPrint{ShowID: ido.ShowID},
					JSON:    output.JSON,
				}
				return l.Do(ctx)
			})
		},
	}
	options.AddShowIDArgs(cmd, ido)

	parent.AddCommand(cmd)
}

func addHabitAdd(parent *cobra.Command) {
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a habit",
		Example: `
habitdash habit add Drink tea
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a habit name")
			}
			name = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				a := habits.Add{Service: svc, Name: name, JSON: output.JSON}
				return a.Do(ctx)
			})
		},
	}

	parent.AddCommand(cmd)
}

func addHabitRename(parent *cobra.Command) {
	var ref, name string

	cmd := &cobra.Command{
		Use:   "rename",
		Short: base.Wrap80("Rename a habit. Days already logged keep the old name."),
		Example: `
habitdash habit rename read "Read fiction"
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("requires a habit and a new name")
			}
			ref = args[0]
			name = strings.Join(args[1:], " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				r := habits.Rename{Service: svc, Ref: ref, Name: name, JSON: output.JSON}
				return r.Do(ctx)
			})
		},
		ValidArgsFunction: habitCompletions,
	}

	parent.AddCommand(cmd)
}

func addHabitRemove(parent *cobra.Command) {
	var ref string

	cmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm"},
		Short:   base.Wrap80("Remove a habit. Days already logged are kept."),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a habit")
			}
			ref = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				r := habits.Remove{Service: svc, Ref: ref, JSON: output.JSON}
				return r.Do(ctx)
			})
		},
		ValidArgsFunction: habitCompletions,
	}

	parent.AddCommand(cmd)
}

func addHabitIcon(parent *cobra.Command) {
	var ref string

	cmd := &cobra.Command{
		Use:   "icon",
		Short: "Cycle a habit to its next icon",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a habit")
			}
			ref = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				i := habits.Icon{Service: svc, Ref: ref, JSON: output.JSON}
				return i.Do(ctx)
			})
		},
		ValidArgsFunction: habitCompletions,
	}

	parent.AddCommand(cmd)
}

func addHabitToggle(parent *cobra.Command) {
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:     "toggle",
		Aliases: []string{"done", "x"},
		Short:   base.Wrap80("Mark habits done, or not done if they already are."),
		Example: `
habitdash habit toggle read exercise
habitdash habit toggle --on=1/4 meditate
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false, func(ctx context.Context, svc *app.Service) error {
				on, err := oo.GetOn(svc.Ledger.Today().Time())
				if err != nil {
					return err
				}
				t := habits.Toggle{Service: svc, Refs: args, Date: on, JSON: output.JSON}
				return t.Do(ctx)
			})
		},
		ValidArgsFunction: habitCompletions,
	}
	options.AddOnArgs(cmd, oo)

	parent.AddCommand(cmd)
}
