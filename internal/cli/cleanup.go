package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/docker"
)

func newCleanupCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove containers and volumes, then prune Docker",
		Long: `Tear the stack down with its volumes for both compose files, then run
docker system prune to remove unused containers, networks and images.

Data stored in the stack's volumes is lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			compose, err := e.compose(ctx, cfg)
			if err != nil {
				return err
			}

			yes, _ := cmd.Flags().GetBool("yes")
			all, _ := cmd.Flags().GetBool("all")

			if !yes && !e.dryRun {
				ok, err := confirm(e, "This removes the stack's containers and volumes and prunes unused Docker data. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					color.Yellow("⚠ Cleanup cancelled")
					return nil
				}
			}

			color.Cyan("Cleaning up...")

			if err := downAll(ctx, compose, cfg, docker.DownOptions{Volumes: true, RemoveOrphans: true}); err != nil {
				return fmt.Errorf("failed to remove stack: %w", err)
			}

			color.Cyan("→ Pruning unused Docker data...")
			if err := docker.SystemPrune(ctx, e.runner, all); err != nil {
				return err
			}

			color.Green("✓ Cleanup complete")
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().Bool("all", false, "Also remove all unused images, not just dangling ones")

	return cmd
}

// errNoAnswer is returned when stdin closes before a confirmation answer.
var errNoAnswer = errors.New("no confirmation received (use --yes to run non-interactively)")

// confirm asks a yes/no question; anything but y or yes is no. Stdin that
// ends before any answer is errNoAnswer.
func confirm(e *env, question string) (bool, error) {
	fmt.Fprintf(color.Output, "%s [y/N] ", color.YellowString(question))

	line, err := bufio.NewReader(e.stdin).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		if errors.Is(err, io.EOF) {
			return false, errNoAnswer
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
