package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stackctl/internal/composefile"
	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/docker"
	"github.com/blackwell-systems/stackctl/internal/envfile"
)

func newCheckCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify prerequisites, compose files and env files",
		Long: `Check that Docker and Compose are available and the daemon answers,
that the compose files parse and declare valid services, and that every
app's .env declares the same keys as its .env.example.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ok := true
			ok = checkDocker(cmd.Context(), e, cfg) && ok
			ok = checkComposeFiles(cfg) && ok
			ok = checkEnvFiles(cfg) && ok

			if !ok {
				return errors.New("checks failed")
			}
			color.Green("\n✓ All checks passed")
			return nil
		},
	}
}

func checkDocker(ctx context.Context, e *env, cfg *config.Config) bool {
	color.Cyan("Docker:")

	command, err := docker.Detect(ctx, e.runner, cfg.ComposeCommand)
	if err != nil {
		color.Red("  ✗ %v", err)
		return false
	}
	color.Green("  ✓ compose: %s", strings.Join(command, " "))

	eng, err := e.newEngine()
	if err != nil {
		color.Red("  ✗ %v", err)
		return false
	}
	defer eng.Close()

	if err := docker.Ping(ctx, eng); err != nil {
		color.Red("  ✗ %v", err)
		return false
	}
	color.Green("  ✓ daemon reachable")
	return true
}

func checkComposeFiles(cfg *config.Config) bool {
	color.Cyan("Compose files:")

	ok := true
	for _, name := range []string{cfg.ComposeFile, cfg.DevComposeFile} {
		path := cfg.Path(name)
		if _, err := os.Stat(path); err != nil {
			color.Red("  ✗ %s not found", path)
			ok = false
			continue
		}

		f, err := composefile.Load(path)
		if err != nil {
			color.Red("  ✗ %v", err)
			ok = false
			continue
		}

		result := composefile.Validate(f)
		for _, w := range result.Warnings {
			color.Yellow("  ⚠ %s: %s", name, w)
		}
		if !result.Valid {
			for _, msg := range result.Errors {
				color.Red("  ✗ %s: %s", name, msg)
			}
			ok = false
			continue
		}
		color.Green("  ✓ %s (services: %s)", name, strings.Join(f.ServiceNames(), ", "))
	}
	return ok
}

func checkEnvFiles(cfg *config.Config) bool {
	color.Cyan("Env files:")

	ok := true
	for _, dir := range cfg.AppPaths() {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			color.Red("  ✗ %v: %s", envfile.ErrDirMissing, dir)
			ok = false
			continue
		}

		drift, err := envfile.CheckDrift(dir, cfg.EnvFile, cfg.EnvExample)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				color.Yellow("  ⚠ %s: %s missing, run 'stackctl setup'", dir, cfg.EnvFile)
				continue
			}
			color.Red("  ✗ %v", err)
			ok = false
			continue
		}

		if drift.Clean() {
			color.Green("  ✓ %s", dir)
			continue
		}
		// Key drift is worth a look but does not stop the stack from starting.
		if len(drift.Missing) > 0 {
			color.Yellow("  ⚠ %s: keys missing from %s: %s", dir, cfg.EnvFile, strings.Join(drift.Missing, ", "))
		}
		if len(drift.Extra) > 0 {
			color.Yellow("  ⚠ %s: keys not in %s: %s", dir, cfg.EnvExample, strings.Join(drift.Extra, ", "))
		}
	}
	return ok
}
