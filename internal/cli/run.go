package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/setpoint-dev/setpoint/internal/config"
	"github.com/setpoint-dev/setpoint/internal/group"
	"github.com/setpoint-dev/setpoint/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Duration time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Run a control group",
		Long: `Build a control group from a deployment config and run it.

Devices without registered hardware commands run against null commands, so
a config is runnable end to end with no hardware attached. Inputs are
polled on the configured interval; due routines are attempted on a much
tighter cadence. Device logs are flushed to the SQLite database after
every poll.

Example:
  setpoint run --db ./setpoint.db ./deploy.yaml
  setpoint run --db /tmp/test.db ./deploy.yaml --duration 30s --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroup(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "stop after this long (default: run until interrupted)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runGroup(opts *RunOptions, path string, cmd *cobra.Command) error {
	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	g, err := config.Build(cfg, nil, config.Commands{}, group.WithStore(st))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build group", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	err = g.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
