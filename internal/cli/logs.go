package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/docker"
)

func newLogsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [service]",
		Short: "Stream logs from the stack",
		Long: `Stream docker compose logs for the whole stack or a single service.

With --profile auto (the default) the compose file whose services are
running is used, preferring the production file.`,
		Example: `  stackctl logs
  stackctl logs web --tail 100
  stackctl logs agent --profile dev --no-follow`,
		Args: cobra.MaximumNArgs(1),
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

			prof, _ := cmd.Flags().GetString("profile")
			tail, _ := cmd.Flags().GetInt("tail")
			noFollow, _ := cmd.Flags().GetBool("no-follow")

			file, running, err := selectLogsFile(ctx, compose, cfg, prof)
			if err != nil {
				return err
			}

			opts := docker.LogsOptions{Follow: !noFollow, Tail: tail}
			if len(args) == 1 {
				opts.Service = args[0]
				if !slices.Contains(running, opts.Service) {
					return notRunningError(opts.Service, running)
				}
			}

			return interrupted(ctx, compose.Logs(ctx, file, opts))
		},
	}

	cmd.Flags().String("profile", "auto", "Compose file to read logs from (auto|prod|dev)")
	cmd.Flags().Int("tail", 0, "Number of lines to show from the end of the logs (0 = all)")
	cmd.Flags().Bool("no-follow", false, "Print current logs and exit")

	return cmd
}

// selectLogsFile picks the compose file for logs and returns the services
// currently running from it.
func selectLogsFile(ctx context.Context, compose *docker.Compose, cfg *config.Config, prof string) (string, []string, error) {
	var candidates []string
	switch prof {
	case prodProfile.name, prodProfile.alias:
		candidates = []string{cfg.ComposeFile}
	case devProfile.name, devProfile.alias:
		candidates = []string{cfg.DevComposeFile}
	case "auto", "":
		candidates = []string{cfg.ComposeFile, cfg.DevComposeFile}
	default:
		return "", nil, fmt.Errorf("invalid profile: %s (must be auto, prod, or dev)", prof)
	}

	var (
		fallback        string
		fallbackRunning []string
	)
	for _, f := range candidates {
		if _, err := os.Stat(cfg.Path(f)); err != nil {
			continue
		}
		running, err := compose.RunningServices(ctx, f)
		if err != nil {
			return "", nil, err
		}
		if len(running) > 0 {
			return f, running, nil
		}
		if fallback == "" {
			fallback, fallbackRunning = f, running
		}
	}

	if fallback == "" {
		return "", nil, fmt.Errorf("compose file not found: %s", cfg.Path(candidates[0]))
	}
	return fallback, fallbackRunning, nil
}

func notRunningError(service string, running []string) error {
	if len(running) == 0 {
		return fmt.Errorf("service %q is not running: no services are running (start the stack with 'stackctl prod' or 'stackctl dev')", service)
	}
	return fmt.Errorf("service %q is not running; running services: %s", service, strings.Join(running, ", "))
}
