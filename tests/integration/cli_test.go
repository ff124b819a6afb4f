package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestMain builds the taxonomy binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "taxonomy-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	taxonomyBin = filepath.Join(tmpDir, "taxonomy")

	cmd := exec.Command("go", "build", "-o", taxonomyBin, "./cmd/taxonomy")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func TestInitCreatesDataFile(t *testing.T) {
	for _, tc := range []struct {
		backend string
		file    string
	}{
		{"json", "taxonomy.json"},
		{"sqlite", "taxonomy.db"},
	} {
		t.Run(tc.backend, func(t *testing.T) {
			env := NewTestEnv(t, tc.backend)
			result := env.MustRun("init")
			if !strings.Contains(result.Stdout, "Taxonomy initialized") {
				t.Errorf("unexpected init output: %q", result.Stdout)
			}
			if _, err := os.Stat(filepath.Join(env.DataDir, tc.file)); err != nil {
				t.Errorf("%s not created: %v", tc.file, err)
			}
		})
	}
}

// Each invocation is a separate process, so every change must survive the
// flush that happens on exit.
func TestChangesPersistAcrossProcesses(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			env := NewTestEnv(t, backend)

			id := strings.TrimSpace(env.MustRun("add", "Sky Whale", "--vector", "vector_symbols").Stdout)
			if id == "" {
				t.Fatal("add printed no id")
			}
			env.MustRun("move", id, "vector_places")
			env.MustRun("use", id, "--by", "2")

			themes := ParseJSON[[]Theme](t, env.MustRun("--json", "search", "whale").Stdout)
			if len(themes) != 1 {
				t.Fatalf("search returned %d themes, want 1", len(themes))
			}
			got := themes[0]
			if got.ID != id || got.UsageCount != 2 {
				t.Errorf("got %+v, want id %s with 2 uses", got, id)
			}
			if len(got.VectorIDs) != 1 || got.VectorIDs[0] != "vector_places" {
				t.Errorf("vectorIds = %v, want [vector_places]", got.VectorIDs)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	env := NewTestEnv(t, "json")
	env.MustRun("init")

	if r := env.Run("", "delete", "theme_pursuit"); r.ExitCode != 1 {
		t.Errorf("deleting a built-in theme exited %d, want 1 (stderr %q)", r.ExitCode, r.Stderr)
	}
	if r := env.Run("", "import", filepath.Join(env.TempDir, "missing.json")); r.ExitCode != 2 {
		t.Errorf("importing a missing file exited %d, want 2 (stderr %q)", r.ExitCode, r.Stderr)
	}
	if r := env.Run("{", "import", "-"); r.ExitCode != 1 {
		t.Errorf("importing malformed JSON exited %d, want 1 (stderr %q)", r.ExitCode, r.Stderr)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := NewTestEnv(t, "json")
	id := strings.TrimSpace(src.MustRun("add", "Glass House", "--vector", "vector_places").Stdout)
	exported := src.MustRun("export").Stdout

	dst := NewTestEnv(t, "sqlite")
	if r := dst.Run(exported, "import", "-"); r.ExitCode != 0 {
		t.Fatalf("import failed: %s", r.Stderr)
	}
	if !strings.Contains(dst.MustRun("show", "--cluster", "cluster_world").Stdout, id) {
		t.Errorf("imported taxonomy is missing %s", id)
	}
}
