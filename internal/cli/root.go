// Package cli implements the taskrun command: run shell commands as executor tasks.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ygrebnov/executor"
	"github.com/ygrebnov/executor/internal/config"
	"github.com/ygrebnov/executor/internal/logging"
)

// Version is set at build time.
var Version = "dev"

var ErrCommandsFailed = errors.New("taskrun: some commands did not succeed")

// NewRootCommand returns the taskrun command.
func NewRootCommand() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "taskrun [flags] -- COMMAND...",
		Short: "Run shell commands as tasks on a single-threaded or concurrent executor",
		Long: `taskrun runs every COMMAND argument with "<shell> -c" as one task.

In concurrent mode commands are queued first in, first out and run on a pool of
workers; the queue is bounded and producers wait while it is full. In serial mode
commands run one at a time, most recently queued first.

SIGINT and SIGTERM interrupt the run: running commands finish, queued ones are
reported as not started. The exit status is non-zero if any command did not succeed.`,
		Version:       Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "YAML configuration file.")
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		panic(fmt.Sprintf("taskrun: binding flags: %v", err))
	}
	return cmd
}

func run(ctx context.Context, cfg *config.Config, lines []string, stdout, stderr io.Writer) error {
	logger, closer, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	provider, srv, err := newMetrics(cfg.MetricsAddr, logger)
	if err != nil {
		return fmt.Errorf("taskrun: metrics: %w", err)
	}
	if srv != nil {
		defer srv.Shutdown()
	}

	r := newReporter(logger, stdout, cfg.Mode, len(lines))
	opts := append(cfg.ExecutorOptions(), executor.WithLogger(logger), executor.WithMetrics(provider))

	switch cfg.Mode {
	case config.ModeSerial:
		err = runSerial(ctx, cfg, lines, r, opts)
	default:
		err = runConcurrent(ctx, cfg, lines, r, opts)
	}
	if err != nil {
		return err
	}
	r.summary()

	if n := r.unsuccessful(); n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCommandsFailed, n, len(lines))
	}
	return nil
}

func runSerial(ctx context.Context, cfg *config.Config, lines []string, r *reporter, opts []executor.Option) error {
	e, err := executor.NewExecutor[Result](r, opts...)
	if err != nil {
		return err
	}
	for _, line := range lines {
		t := newShellTask(cfg.Shell, line)
		t.onSuccess = r.succeed
		if err := e.PutTask(t); err != nil {
			return err
		}
	}

	if cfg.Loop {
		return e.Run(ctx)
	}
	for e.Len() > 0 {
		if err := e.Run(ctx); err != nil {
			if errors.Is(err, executor.ErrStopped) {
				return nil
			}
			return err
		}
	}
	return nil
}

func runConcurrent(ctx context.Context, cfg *config.Config, lines []string, r *reporter, opts []executor.Option) error {
	e, err := executor.NewConcurrentExecutor[Result](r, opts...)
	if err != nil {
		return err
	}

	release := e.Hold()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	for _, line := range lines {
		if err := e.PutTaskContext(ctx, newShellTask(cfg.Shell, line)); err != nil {
			if !errors.Is(err, executor.ErrStopped) && !errors.Is(err, context.Canceled) {
				release()
				e.Interrupt()
				<-done
				return err
			}
			break
		}
	}
	release()
	return <-done
}
