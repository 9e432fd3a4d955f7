package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stackctl/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize stackctl configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.Display()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("path")
			if e.dryRun {
				fmt.Fprintf(cmd.ErrOrStderr(), "+ write %s\n", path)
				return nil
			}
			if err := config.SaveAs(cfg, path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			color.Green("✓ Wrote %s", path)
			return nil
		},
	}
	initCmd.Flags().String("path", "stackctl.yaml", "Config file to create")

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}
