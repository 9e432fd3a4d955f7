package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/docker"
)

// profile selects which compose file a lifecycle command drives.
type profile struct {
	name  string
	alias string
	title string
	file  func(cfg *config.Config) string
}

var (
	prodProfile = profile{
		name:  "prod",
		alias: "production",
		title: "production",
		file:  func(cfg *config.Config) string { return cfg.ComposeFile },
	}
	devProfile = profile{
		name:  "dev",
		alias: "development",
		title: "development",
		file:  func(cfg *config.Config) string { return cfg.DevComposeFile },
	}
)

func newLifecycleCmd(e *env, p profile) *cobra.Command {
	cmd := &cobra.Command{
		Use:     p.name,
		Aliases: []string{p.alias},
		Short:   fmt.Sprintf("Build and start the stack in %s mode", p.title),
		Long: fmt.Sprintf(`Start the stack with the %s compose file.

This creates missing .env files, then runs docker compose down, build and
up -d so the stack always starts from freshly built images.`, p.title),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// bound here rather than at construction: prod and dev share the key
			if err := config.BindFlag("pull-on-start", cmd.Flags().Lookup("pull")); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			noBuild, _ := cmd.Flags().GetBool("no-build")
			detach, _ := cmd.Flags().GetBool("detach")
			return runLifecycle(cmd, e, cfg, p, !noBuild, detach)
		},
	}

	cmd.Flags().Bool("pull", false, "Pull newer base images while building")
	cmd.Flags().Bool("no-build", false, "Skip the image build step")
	cmd.Flags().BoolP("detach", "d", true, "Run in background")

	return cmd
}

func runLifecycle(cmd *cobra.Command, e *env, cfg *config.Config, p profile, build, detach bool) error {
	ctx := cmd.Context()

	compose, err := e.compose(ctx, cfg)
	if err != nil {
		return err
	}

	file := p.file(cfg)
	if _, err := os.Stat(cfg.Path(file)); err != nil {
		return fmt.Errorf("compose file not found: %s", cfg.Path(file))
	}

	color.Cyan("Starting stack in %s mode...", p.title)

	if err := runSetup(cmd, e, cfg); err != nil {
		return err
	}

	color.Cyan("→ Stopping existing containers...")
	if err := compose.Down(ctx, file, docker.DownOptions{}); err != nil {
		return fmt.Errorf("failed to stop stack: %w", err)
	}

	if build {
		color.Cyan("→ Building images...")
		if err := compose.Build(ctx, file, docker.BuildOptions{Pull: cfg.PullOnStart}); err != nil {
			return fmt.Errorf("failed to build stack: %w", err)
		}
	}

	color.Cyan("→ Starting containers...")
	err = compose.Up(ctx, file, detach)
	if !detach {
		err = interrupted(ctx, err)
	}
	if err != nil {
		return fmt.Errorf("failed to start stack: %w", err)
	}

	if !detach {
		return nil
	}

	color.Green("✓ Stack started successfully")
	color.Cyan("\nServices:")
	color.Cyan("  Web:    http://localhost:%d", cfg.Ports.Web)
	color.Cyan("  Agent:  http://localhost:%d", cfg.Ports.Agent)
	color.Cyan("\nRun 'stackctl logs' to follow output or 'stackctl status' to check health")

	return nil
}
