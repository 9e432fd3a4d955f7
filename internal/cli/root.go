// Package cli implements the stackctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/docker"
	"github.com/blackwell-systems/stackctl/internal/execx"
	"github.com/blackwell-systems/stackctl/internal/logging"
)

// engine is the Docker Engine API surface the status and check commands use.
type engine interface {
	docker.ContainerLister
	docker.Pinger
	Close() error
}

// env carries the collaborators shared by all commands. Nil fields are
// filled in by the root command before any subcommand runs.
type env struct {
	runner    execx.Runner
	newEngine func() (engine, error)
	logger    *zap.Logger
	stdin     io.Reader

	dryRun bool
	debug  bool
}

// Execute runs the root command and reports the first error in red.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(version, &env{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ %v", err))
		return err
	}
	return nil
}

func newRootCmd(version string, e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "stackctl",
		Short: "Manage the web + agent Docker Compose stack",
		Long: `stackctl drives the Docker Compose stack made of the web frontend
(port 3000) and the agent API (port 2024).

It provisions per-app .env files from their .env.example templates and maps
lifecycle commands onto docker compose for the production and development
compose files.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	root.PersistentFlags().String("project-dir", "", "directory holding the compose files and app dirs")
	root.PersistentFlags().BoolVar(&e.dryRun, "dry-run", false, "print mutating docker commands instead of running them")
	root.PersistentFlags().BoolVar(&e.debug, "debug", false, "enable debug logging to stderr")
	_ = config.BindFlag("project-dir", root.PersistentFlags().Lookup("project-dir"))

	root.AddCommand(
		newSetupCmd(e),
		newLifecycleCmd(e, prodProfile),
		newLifecycleCmd(e, devProfile),
		newStopCmd(e),
		newLogsCmd(e),
		newCleanupCmd(e),
		newStatusCmd(e),
		newCheckCmd(e),
		newConfigCmd(e),
		newVersionCmd(),
	)

	return root
}

func (e *env) init(cmd *cobra.Command) error {
	if e.logger == nil {
		logger, err := logging.New(e.debug)
		if err != nil {
			return err
		}
		e.logger = logger
	}
	if e.runner == nil {
		r := execx.NewExecRunner(e.logger, e.dryRun)
		r.Stdin = cmd.InOrStdin()
		r.Stdout = cmd.OutOrStdout()
		r.Stderr = cmd.ErrOrStderr()
		e.runner = r
	}
	if e.newEngine == nil {
		e.newEngine = func() (engine, error) { return docker.NewClient() }
	}
	if e.stdin == nil {
		e.stdin = cmd.InOrStdin()
	}
	return nil
}

// compose checks the docker prerequisites and returns a compose driver.
// Commands that touch docker call it before doing anything else.
func (e *env) compose(ctx context.Context, cfg *config.Config) (*docker.Compose, error) {
	command, err := docker.Detect(ctx, e.runner, cfg.ComposeCommand)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("compose detected", zap.Strings("command", command))
	return docker.NewCompose(e.runner, command, cfg), nil
}

// interrupted drops the error of a streaming command the user stopped
// with Ctrl-C; the killed child is the expected way out.
func interrupted(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
