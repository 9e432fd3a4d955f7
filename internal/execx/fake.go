package execx

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Recorder is an in-memory Runner for tests. It records every command and
// answers from canned responses keyed by Command.String().
type Recorder struct {
	mu sync.Mutex

	// Paths maps executable names to the path LookPath returns. Names
	// missing from the map are reported as not found.
	Paths map[string]string
	// Outputs maps a rendered command to the stdout Output returns.
	Outputs map[string]string
	// Fail maps a rendered command to the error Run or Output returns.
	Fail map[string]error

	Calls []Command
}

// NewRecorder returns a Recorder that resolves the given executables.
func NewRecorder(executables ...string) *Recorder {
	r := &Recorder{
		Paths:   map[string]string{},
		Outputs: map[string]string{},
		Fail:    map[string]error{},
	}
	for _, name := range executables {
		r.Paths[name] = "/usr/bin/" + name
	}
	return r
}

// Run implements Runner.
func (r *Recorder) Run(_ context.Context, c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, c)
	return r.Fail[c.String()]
}

// Output implements Runner.
func (r *Recorder) Output(_ context.Context, c Command) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, c)
	key := c.String()
	if err, ok := r.Fail[key]; ok {
		return "", err
	}
	return r.Outputs[key], nil
}

// LookPath implements Runner.
func (r *Recorder) LookPath(name string) (string, error) {
	if p, ok := r.Paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

// Commands returns the rendered commands recorded so far.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.String())
	}
	return out
}

// Matching returns the recorded commands containing substr.
func (r *Recorder) Matching(substr string) []string {
	var out []string
	for _, c := range r.Commands() {
		if strings.Contains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}
