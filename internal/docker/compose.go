package docker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/blackwell-systems/stackctl/internal/composefile"
	"github.com/blackwell-systems/stackctl/internal/config"
	"github.com/blackwell-systems/stackctl/internal/execx"
)

var (
	// ErrDockerNotFound is returned when the docker binary is not on PATH.
	ErrDockerNotFound = errors.New("docker is not installed or not on PATH")
	// ErrComposeNotFound is returned when neither compose flavour works.
	ErrComposeNotFound = errors.New("docker compose is not available (install the compose plugin or docker-compose)")
)

// Compose drives docker compose for one project directory
type Compose struct {
	runner  execx.Runner
	command []string
	dir     string
	project string
	env     []string
}

// Detect checks the docker prerequisites and picks the compose command.
// It must run before anything else touches the project.
func Detect(ctx context.Context, runner execx.Runner, preference string) ([]string, error) {
	if _, err := runner.LookPath("docker"); err != nil {
		return nil, ErrDockerNotFound
	}

	plugin := func() bool {
		_, err := runner.Output(ctx, execx.Command{Name: "docker", Args: []string{"compose", "version"}})
		return err == nil
	}
	standalone := func() bool {
		_, err := runner.LookPath("docker-compose")
		return err == nil
	}

	switch preference {
	case config.ComposePlugin:
		if plugin() {
			return []string{"docker", "compose"}, nil
		}
	case config.ComposeStandalone:
		if standalone() {
			return []string{"docker-compose"}, nil
		}
	default:
		if plugin() {
			return []string{"docker", "compose"}, nil
		}
		if standalone() {
			return []string{"docker-compose"}, nil
		}
	}

	return nil, ErrComposeNotFound
}

// NewCompose returns a compose driver for cfg using the detected command.
func NewCompose(runner execx.Runner, command []string, cfg *config.Config) *Compose {
	return &Compose{
		runner:  runner,
		command: command,
		dir:     cfg.ProjectDir,
		project: cfg.ProjectName,
		// Generate environment variables for docker compose
		env: []string{
			fmt.Sprintf("WEB_PORT=%d", cfg.Ports.Web),
			fmt.Sprintf("AGENT_PORT=%d", cfg.Ports.Agent),
		},
	}
}

func (c *Compose) cmd(file string, args ...string) execx.Command {
	all := append([]string{}, c.command[1:]...)
	if c.project != "" {
		all = append(all, "-p", c.project)
	}
	all = append(all, "-f", file)
	all = append(all, args...)
	return execx.Command{Name: c.command[0], Args: all, Dir: c.dir, Env: c.env}
}

func (c *Compose) run(ctx context.Context, file string, args ...string) error {
	if err := c.runner.Run(ctx, c.cmd(file, args...)); err != nil {
		return fmt.Errorf("compose %s failed: %w", args[0], err)
	}
	return nil
}

// DownOptions controls Down.
type DownOptions struct {
	Volumes       bool
	RemoveOrphans bool
}

// Down stops and removes the stack's containers
func (c *Compose) Down(ctx context.Context, file string, opts DownOptions) error {
	args := []string{"down"}
	if opts.Volumes {
		args = append(args, "-v")
	}
	if opts.RemoveOrphans {
		args = append(args, "--remove-orphans")
	}
	return c.run(ctx, file, args...)
}

// BuildOptions controls Build.
type BuildOptions struct {
	Pull bool
}

// Build builds the stack's images
func (c *Compose) Build(ctx context.Context, file string, opts BuildOptions) error {
	args := []string{"build"}
	if opts.Pull {
		args = append(args, "--pull")
	}
	return c.run(ctx, file, args...)
}

// Up starts the stack
func (c *Compose) Up(ctx context.Context, file string, detach bool) error {
	args := []string{"up"}
	if detach {
		args = append(args, "-d")
	}
	return c.run(ctx, file, args...)
}

// LogsOptions controls Logs.
type LogsOptions struct {
	Service string
	Follow  bool
	Tail    int
}

// Logs streams service logs to the terminal
func (c *Compose) Logs(ctx context.Context, file string, opts LogsOptions) error {
	args := []string{"logs"}
	if opts.Follow {
		args = append(args, "-f")
	}
	if opts.Tail > 0 {
		args = append(args, "--tail", strconv.Itoa(opts.Tail))
	}
	if opts.Service != "" {
		args = append(args, opts.Service)
	}
	return c.run(ctx, file, args...)
}

// RunningServices lists the services with a running container, sorted.
func (c *Compose) RunningServices(ctx context.Context, file string) ([]string, error) {
	out, err := c.runner.Output(ctx, c.cmd(file, "ps", "--services", "--filter", "status=running"))
	if err != nil {
		return nil, fmt.Errorf("compose ps failed: %w", err)
	}
	var services []string
	for _, line := range strings.Split(out, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			services = append(services, s)
		}
	}
	sort.Strings(services)
	return services, nil
}

// SystemPrune removes unused docker data system wide
func SystemPrune(ctx context.Context, runner execx.Runner, all bool) error {
	args := []string{"system", "prune", "-f"}
	if all {
		args = append(args, "-a")
	}
	if err := runner.Run(ctx, execx.Command{Name: "docker", Args: args}); err != nil {
		return fmt.Errorf("docker system prune failed: %w", err)
	}
	return nil
}

var invalidProjectChars = regexp.MustCompile(`[^a-z0-9_-]`)

// ProjectName returns the compose project name for cfg, resolved in the
// order compose uses when no -p flag is given: the configured name,
// COMPOSE_PROJECT_NAME, the top-level name of the compose files, then the
// project dir's basename.
func ProjectName(cfg *config.Config) string {
	if cfg.ProjectName != "" {
		return cfg.ProjectName
	}
	if name := os.Getenv("COMPOSE_PROJECT_NAME"); name != "" {
		return normalizeProjectName(name)
	}
	for _, file := range []string{cfg.ComposeFile, cfg.DevComposeFile} {
		f, err := composefile.Load(cfg.Path(file))
		if err != nil {
			continue
		}
		// interpolated names are left to compose
		if f.Name != "" && !strings.Contains(f.Name, "$") {
			return normalizeProjectName(f.Name)
		}
	}
	dir, err := filepath.Abs(cfg.ProjectDir)
	if err != nil {
		dir = cfg.ProjectDir
	}
	return normalizeProjectName(filepath.Base(dir))
}

func normalizeProjectName(name string) string {
	name = invalidProjectChars.ReplaceAllString(strings.ToLower(name), "")
	return strings.TrimLeft(name, "_-")
}
