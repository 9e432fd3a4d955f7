// Package envfile provisions per-app .env files from their committed
// .env.example templates and reports key drift between the two.
package envfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
)

var (
	// ErrDirMissing is returned when an app directory does not exist.
	ErrDirMissing = errors.New("app directory not found")
	// ErrExampleMissing is returned when neither the env file nor its template exists.
	ErrExampleMissing = errors.New("env template not found")
)

// Outcome describes what Provision did for one directory.
type Outcome int

const (
	Exists Outcome = iota
	Created
	// Pending is reported by Plan for an env file Provision would create.
	Pending
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Pending:
		return "pending"
	default:
		return "exists"
	}
}

// Result is the provisioning result for one app directory.
type Result struct {
	Path    string
	Example string
	Outcome Outcome
}

// Provision makes sure every dir has an env file. An existing env file is
// never touched; a missing one is copied byte for byte from the template.
// The first failing directory aborts the run.
func Provision(dirs []string, envName, exampleName string) ([]Result, error) {
	return provision(dirs, envName, exampleName, true)
}

// Plan runs the same checks as Provision without writing anything. Env
// files Provision would create are reported as Pending.
func Plan(dirs []string, envName, exampleName string) ([]Result, error) {
	return provision(dirs, envName, exampleName, false)
}

func provision(dirs []string, envName, exampleName string, write bool) ([]Result, error) {
	results := make([]Result, 0, len(dirs))
	for _, dir := range dirs {
		res, err := provisionDir(dir, envName, exampleName, write)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func provisionDir(dir, envName, exampleName string, write bool) (Result, error) {
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return Result{}, fmt.Errorf("%w: %s", ErrDirMissing, dir)
	}

	envPath := filepath.Join(dir, envName)
	examplePath := filepath.Join(dir, exampleName)
	res := Result{Path: envPath, Example: examplePath}

	if _, err := os.Lstat(envPath); err == nil {
		res.Outcome = Exists
		return res, nil
	} else if !os.IsNotExist(err) {
		return Result{}, fmt.Errorf("failed to stat %s: %w", envPath, err)
	}

	if _, err := os.Stat(examplePath); err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrExampleMissing, examplePath)
		}
		return Result{}, fmt.Errorf("failed to stat %s: %w", examplePath, err)
	}

	if !write {
		res.Outcome = Pending
		return res, nil
	}
	if err := copyFile(examplePath, envPath); err != nil {
		return Result{}, err
	}
	res.Outcome = Created
	return res, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	// O_EXCL keeps a concurrently created env file intact.
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, st.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// Drift lists keys that differ between an env file and its template.
type Drift struct {
	Dir string
	// Missing holds template keys absent from the env file.
	Missing []string
	// Extra holds env file keys the template does not declare.
	Extra []string
}

// Clean reports whether both files declare the same keys.
func (d Drift) Clean() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0
}

// CheckDrift parses both files in dir and compares their key sets.
func CheckDrift(dir, envName, exampleName string) (Drift, error) {
	env, err := godotenv.Read(filepath.Join(dir, envName))
	if err != nil {
		return Drift{}, fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, envName), err)
	}
	example, err := godotenv.Read(filepath.Join(dir, exampleName))
	if err != nil {
		return Drift{}, fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, exampleName), err)
	}

	d := Drift{Dir: dir}
	for k := range example {
		if _, ok := env[k]; !ok {
			d.Missing = append(d.Missing, k)
		}
	}
	for k := range env {
		if _, ok := example[k]; !ok {
			d.Extra = append(d.Extra, k)
		}
	}
	sort.Strings(d.Missing)
	sort.Strings(d.Extra)
	return d, nil
}
