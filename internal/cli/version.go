package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stackctl version %s\n", cmd.Root().Version)
			fmt.Fprintln(out, "\nServices:")
			fmt.Fprintln(out, "  web:    Next.js frontend (port 3000)")
			fmt.Fprintln(out, "  agent:  agent API (port 2024)")
		},
	}
}
