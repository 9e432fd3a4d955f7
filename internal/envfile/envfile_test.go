package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

func TestProvisionCopiesTemplateVerbatim(t *testing.T) {
	dir := t.TempDir()
	example := "# web settings\nNEXT_PUBLIC_API_URL=http://localhost:2024\nSECRET=\"a b\"\n\n"
	writeFile(t, filepath.Join(dir, ".env.example"), example, 0o640)

	results, err := Provision([]string{dir}, ".env", ".env.example")
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if len(results) != 1 || results[0].Outcome != Created {
		t.Fatalf("results = %+v, want one Created", results)
	}

	got, err := os.ReadFile(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != example {
		t.Errorf(".env = %q, want %q", got, example)
	}

	st, err := os.Stat(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o640 {
		t.Errorf(".env mode = %v, want 0640", st.Mode().Perm())
	}
}

func TestProvisionLeavesExistingEnvUntouched(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.example"), "KEY=template\n", 0o644)
	writeFile(t, filepath.Join(dir, ".env"), "KEY=local-secret\n", 0o600)

	results, err := Provision([]string{dir}, ".env", ".env.example")
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if results[0].Outcome != Exists {
		t.Errorf("Outcome = %v, want exists", results[0].Outcome)
	}

	got, _ := os.ReadFile(filepath.Join(dir, ".env"))
	if string(got) != "KEY=local-secret\n" {
		t.Errorf(".env was modified: %q", got)
	}
}

func TestProvisionExistingEnvWithoutTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "KEY=1\n", 0o600)

	results, err := Provision([]string{dir}, ".env", ".env.example")
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if results[0].Outcome != Exists {
		t.Errorf("Outcome = %v, want exists", results[0].Outcome)
	}
}

func TestProvisionErrors(t *testing.T) {
	root := t.TempDir()
	web := filepath.Join(root, "apps", "web")
	agents := filepath.Join(root, "apps", "agents")
	writeFile(t, filepath.Join(web, ".env.example"), "A=1\n", 0o644)
	if err := os.MkdirAll(agents, 0o755); err != nil {
		t.Fatal(err)
	}
	notADir := filepath.Join(root, "file")
	writeFile(t, notADir, "", 0o644)

	tests := []struct {
		name    string
		dirs    []string
		wantErr error
		wantN   int
	}{
		{
			name:    "missing directory",
			dirs:    []string{filepath.Join(root, "apps", "nope")},
			wantErr: ErrDirMissing,
		},
		{
			name:    "path is a file",
			dirs:    []string{notADir},
			wantErr: ErrDirMissing,
		},
		{
			name:    "template missing aborts after earlier dirs",
			dirs:    []string{web, agents},
			wantErr: ErrExampleMissing,
			wantN:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Provision(tt.dirs, ".env", ".env.example")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Provision() error = %v, want %v", err, tt.wantErr)
			}
			if len(results) != tt.wantN {
				t.Errorf("len(results) = %d, want %d", len(results), tt.wantN)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(agents, ".env")); !os.IsNotExist(err) {
		t.Error("no .env should be written when the template is missing")
	}
}

func TestPlanWritesNothing(t *testing.T) {
	root := t.TempDir()
	web := filepath.Join(root, "web")
	agents := filepath.Join(root, "agents")
	writeFile(t, filepath.Join(web, ".env.example"), "A=1\n", 0o644)
	writeFile(t, filepath.Join(agents, ".env.example"), "B=1\n", 0o644)
	writeFile(t, filepath.Join(agents, ".env"), "B=2\n", 0o600)

	results, err := Plan([]string{web, agents}, ".env", ".env.example")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := []Result{
		{Path: filepath.Join(web, ".env"), Example: filepath.Join(web, ".env.example"), Outcome: Pending},
		{Path: filepath.Join(agents, ".env"), Example: filepath.Join(agents, ".env.example"), Outcome: Exists},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(web, ".env")); !os.IsNotExist(err) {
		t.Error("Plan() must not create .env")
	}

	if _, err := Plan([]string{filepath.Join(root, "nope")}, ".env", ".env.example"); !errors.Is(err, ErrDirMissing) {
		t.Errorf("Plan() error = %v, want %v", err, ErrDirMissing)
	}
}

func TestCheckDrift(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.example"), "OPENAI_API_KEY=\nLANGSMITH_API_KEY=\nPORT=2024\n", 0o644)
	writeFile(t, filepath.Join(dir, ".env"), "# local\nPORT=2024\nDEBUG=true\n", 0o600)

	d, err := CheckDrift(dir, ".env", ".env.example")
	if err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}
	if diff := cmp.Diff([]string{"LANGSMITH_API_KEY", "OPENAI_API_KEY"}, d.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"DEBUG"}, d.Extra); diff != "" {
		t.Errorf("Extra mismatch (-want +got):\n%s", diff)
	}
	if d.Clean() {
		t.Error("Clean() = true, want false")
	}
}

func TestCheckDriftClean(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.example"), "A=\nB=2\n", 0o644)
	writeFile(t, filepath.Join(dir, ".env"), "B=3\nA=1\n", 0o600)

	d, err := CheckDrift(dir, ".env", ".env.example")
	if err != nil {
		t.Fatalf("CheckDrift() error = %v", err)
	}
	if !d.Clean() {
		t.Errorf("Clean() = false, drift = %+v", d)
	}
}

func TestCheckDriftMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.example"), "A=\n", 0o644)

	if _, err := CheckDrift(dir, ".env", ".env.example"); err == nil {
		t.Error("CheckDrift() should fail when .env is absent")
	}
}
