package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/docker"
)

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of all services",
		Long:  `Display container state of the stack and HTTP health of the web and agent services.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			eng, err := e.newEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			project := docker.ProjectName(cfg)
			status, err := docker.Status(cmd.Context(), eng, project, docker.Endpoints(cfg))
			if err != nil {
				return err
			}

			color.Cyan("Project: %s", status.Project)
			color.Cyan("\nContainer                 Service   State")
			color.Cyan("──────────────────────────────────────────────")
			if len(status.Containers) == 0 {
				color.Yellow("⚠ No containers found; start the stack with 'stackctl prod' or 'stackctl dev'")
			}
			for _, c := range status.Containers {
				color.New().Printf("%-25s %-9s %s  %s\n", c.Name, c.Service, statusText(docker.ContainerStatus(c)), c.Status)
			}

			color.Cyan("\nEndpoint  Health    URL")
			color.Cyan("──────────────────────────────────────────────")
			for _, ep := range status.Endpoints {
				color.New().Printf("%-9s %s  %s\n", ep.Name, statusText(ep.Health), ep.URL)
			}

			return nil
		},
	}
}

func statusText(status docker.ServiceStatus) string {
	switch status {
	case docker.ServiceUp:
		return color.GreenString("✓ UP      ")
	case docker.ServiceDown:
		return color.RedString("✗ DOWN    ")
	case docker.ServiceStarting:
		return color.YellowString("⚠ STARTING")
	default:
		return color.RedString("✗ UNKNOWN ")
	}
}
