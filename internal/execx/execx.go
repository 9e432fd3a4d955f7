// Package execx runs host commands on behalf of the CLI.
//
// All docker and compose invocations go through the Runner interface so the
// command layer can be exercised with a recording fake. ExecRunner is the
// os/exec implementation; in dry-run mode it echoes mutating commands instead
// of executing them.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Command describes a single host process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// String renders the command the way a shell user would type it.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes commands.
type Runner interface {
	// Run streams the command's stdio to the terminal.
	Run(ctx context.Context, cmd Command) error
	// Output captures stdout. It is used for read-only queries and is
	// never suppressed by dry-run.
	Output(ctx context.Context, cmd Command) (string, error)
	// LookPath reports where an executable lives on PATH.
	LookPath(name string) (string, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	DryRun bool
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// NewExecRunner returns a runner wired to the process stdio.
func NewExecRunner(logger *zap.Logger, dryRun bool) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		DryRun: dryRun,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

func (r *ExecRunner) build(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	return cmd
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	if r.DryRun {
		fmt.Fprintln(r.Stderr, "+ "+c.String())
		return nil
	}
	r.Logger.Debug("exec", zap.String("cmd", c.String()), zap.String("dir", c.Dir), zap.Strings("env", c.Env))

	cmd := r.build(ctx, c)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return wrap(c, cmd.Run(), "")
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, c Command) (string, error) {
	r.Logger.Debug("exec capture", zap.String("cmd", c.String()), zap.String("dir", c.Dir))

	cmd := r.build(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	return string(out), wrap(c, err, stderr.String())
}

// LookPath implements Runner.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func wrap(c Command, err error, stderr string) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Command: c.String(), Code: ee.ExitCode(), Stderr: stderr}
	}
	return fmt.Errorf("%s: %w", c.String(), err)
}

// ExitCode extracts the exit status carried by err: 0 for nil, the
// process code for an ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}
