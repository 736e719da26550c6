package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecute_Help(t *testing.T) {
	out := mustRun(t, t.TempDir(), "--help")
	for _, want := range []string{"research", "approve", "mcp", "doctor"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestGetProjectRoot(t *testing.T) {
	defer resetFlags()

	dir := t.TempDir()
	projectPath = dir
	got, err := getProjectRoot()
	if err != nil || got != dir {
		t.Fatalf("getProjectRoot() = %q, %v", got, err)
	}

	file := dir + "/file"
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	projectPath = file
	if _, err := getProjectRoot(); err == nil {
		t.Fatal("expected error for a file path")
	}

	projectPath = dir + "/missing"
	if _, err := getProjectRoot(); err == nil {
		t.Fatal("expected error for a missing path")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".flowgate"), 0o700); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}

	got, ok := findProjectRoot(nested)
	if !ok || got != root {
		t.Fatalf("findProjectRoot() = %q, %v; want %q", got, ok, root)
	}
	if _, ok := findProjectRoot(t.TempDir()); ok {
		t.Fatal("expected no project root outside a project")
	}
}

func TestExitCode(t *testing.T) {
	blocked := NewCLIError("blocked", "", nil)
	blocked.ExitCode = blockedExitCode

	if got := ExitCode(nil); got != 0 {
		t.Errorf("nil: got %d", got)
	}
	if got := ExitCode(os.ErrNotExist); got != 1 {
		t.Errorf("plain error: got %d", got)
	}
	if got := ExitCode(blocked); got != blockedExitCode {
		t.Errorf("blocked: got %d", got)
	}
}
