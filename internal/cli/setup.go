package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/envfile"
)

func newSetupCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create missing .env files from .env.example",
		Long: `Create the .env file of every app directory from its .env.example
template. Existing .env files are never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runSetup(cmd, e, cfg)
		},
	}
}

func runSetup(cmd *cobra.Command, e *env, cfg *config.Config) error {
	color.Cyan("→ Setting up environment files...")

	provision := envfile.Provision
	if e.dryRun {
		provision = envfile.Plan
	}

	results, err := provision(cfg.AppPaths(), cfg.EnvFile, cfg.EnvExample)
	for _, res := range results {
		e.logger.Debug("env file", zap.String("path", res.Path), zap.Stringer("outcome", res.Outcome))
		switch res.Outcome {
		case envfile.Pending:
			fmt.Fprintf(cmd.ErrOrStderr(), "+ cp %s %s\n", res.Example, res.Path)
		case envfile.Created:
			color.Green("✓ Created %s from %s", res.Path, cfg.EnvExample)
		default:
			color.Green("✓ %s already exists", res.Path)
		}
	}
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	if anyCreated(results) {
		color.Yellow("⚠ Review the new %s files and fill in any secrets before starting the stack", cfg.EnvFile)
	}
	return nil
}

func anyCreated(results []envfile.Result) bool {
	for _, r := range results {
		if r.Outcome == envfile.Created {
			return true
		}
	}
	return false
}
