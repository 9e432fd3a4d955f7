package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/docker"
)

func newStopCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the stack",
		Long:  `Stop all stack services started from either the production or the development compose file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			compose, err := e.compose(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			color.Cyan("Stopping stack...")

			if err := downAll(cmd.Context(), compose, cfg, docker.DownOptions{}); err != nil {
				return fmt.Errorf("failed to stop stack: %w", err)
			}

			color.Green("✓ Stack stopped successfully")
			return nil
		},
	}
}

// composeFiles returns the prod and dev compose files that exist on disk.
// Missing files are reported and skipped; having neither is an error.
func composeFiles(cfg *config.Config) ([]string, error) {
	var files []string
	for _, f := range []string{cfg.ComposeFile, cfg.DevComposeFile} {
		if _, err := os.Stat(cfg.Path(f)); err != nil {
			color.Yellow("⚠ %s not found, skipping", cfg.Path(f))
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no compose files found in %s", cfg.ProjectDir)
	}
	return files, nil
}

func downAll(ctx context.Context, compose *docker.Compose, cfg *config.Config, opts docker.DownOptions) error {
	files, err := composeFiles(cfg)
	if err != nil {
		return err
	}
	for _, f := range files {
		color.Cyan("→ Stopping services from %s...", f)
		if err := compose.Down(ctx, f, opts); err != nil {
			return err
		}
	}
	return nil
}
