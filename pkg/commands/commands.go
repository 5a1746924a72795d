package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/habitdash/pkg/app"
	"tableflip.dev/habitdash/pkg/commands/options"
	"tableflip.dev/habitdash/pkg/logging"
	"tableflip.dev/habitdash/pkg/store"
)

var (
	output = &options.OutputOptions{}
	lo     = &options.LogOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "habitdash",
		Short: base.Wrap80("Habits, focus sessions and streaks on the command line."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	options.AddOutputArg(cmd, output)
	options.AddLogArgs(cmd, lo)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addHabit(topLevel)
	addTimer(topLevel)
	addSlip(topLevel)
	addStats(topLevel)
	addLedger(topLevel)
	addKey(topLevel)
	addCompletions(topLevel)
	addVersion(topLevel)
}

// session is an opened Service plus what must be released with it.
type session struct {
	svc *app.Service
	log *zap.Logger
}

func (s *session) Close() {
	s.svc.Close()
	_ = s.log.Sync()
}

// open loads configuration, builds the logger and opens the Service. When
// toFile is set logs go next to the store instead of stderr.
func open(ctx context.Context, toFile bool) (*session, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	lopts := logging.Options{Level: cfg.LogLevel(), Verbose: lo.Verbose}
	if toFile {
		lopts.File = filepath.Clean(cfg.BasePath()) + ".log"
	}
	log, err := logging.New(lopts)
	if err != nil {
		return nil, err
	}
	svc, err := app.Open(ctx, cfg, app.WithLogger(log))
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("open %s: %w", cfg.BasePath(), err)
	}
	return &session{svc: svc, log: log}, nil
}

// run opens a session, hands its Service to fn and reports the error in the
// selected output format.
func run(toFile bool, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx := context.Background()
	s, err := open(ctx, toFile)
	if err != nil {
		return output.HandleError(err)
	}
	defer s.Close()
	return output.HandleError(fn(ctx, s.svc))
}
