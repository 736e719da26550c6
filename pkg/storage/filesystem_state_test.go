package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
)

func TestSaveAndLoadState_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := NewFilesystemRepository(dir)

	created := time.Date(2024, 1, 1, 9, 30, 0, 123456789, time.UTC)
	state := workflow.NewState(created)
	state.CurrentPhase = workflow.PhasePlan
	state.TaskID = "ENG-42"
	state.ResearchPath = "/x/research.md"
	state.PlanPath = "/x/plan.md"
	state.PlanApproved = true
	state.Metadata.TaskDescription = "add login"

	if err := repo.SaveState(state); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	loaded, err := repo.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if loaded.CurrentPhase != state.CurrentPhase ||
		loaded.TaskID != state.TaskID ||
		loaded.ResearchPath != state.ResearchPath ||
		loaded.PlanPath != state.PlanPath ||
		loaded.PlanApproved != state.PlanApproved ||
		loaded.ImplementationStarted != state.ImplementationStarted ||
		loaded.ValidationComplete != state.ValidationComplete ||
		loaded.Metadata.TaskDescription != state.Metadata.TaskDescription ||
		loaded.SchemaVersion != workflow.SchemaVersion {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", loaded, state)
	}
	if !loaded.Metadata.CreatedAt.Equal(created) {
		t.Errorf("createdAt mismatch: %v vs %v", loaded.Metadata.CreatedAt, created)
	}
}

func TestSaveState_PrettyPrintedAndPrivate(t *testing.T) {
	dir := t.TempDir()
	repo := NewFilesystemRepository(dir)
	if err := repo.SaveState(workflow.NewState(time.Now())); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	path := filepath.Join(dir, StateDir, StateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"currentPhase\": \"idle\"") {
		t.Errorf("expected indented JSON, got:\n%s", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not survive a successful save")
	}
}

func TestLoadState_NotFound(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())
	_, err := repo.LoadState()
	if !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
}

func TestLoadState_Corrupt(t *testing.T) {
	dir := t.TempDir()
	repo := NewFilesystemRepository(dir)
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(repo.StatePath(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.LoadState(); err == nil {
		t.Fatal("expected error for corrupt state")
	}
}

func TestLoadState_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	repo := NewFilesystemRepository(dir)
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	doc := `{"currentPhase": "shipping", "planApproved": false, "implementationStarted": false,
	"validationComplete": false, "metadata": {"createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"}}`
	if err := os.WriteFile(repo.StatePath(), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := repo.LoadState()
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Violations) == 0 {
		t.Error("expected at least one violation")
	}
}

func TestLoadState_WithoutSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	repo := NewFilesystemRepository(dir)
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	doc := `{
  "currentPhase": "research",
  "taskId": "ENG-1",
  "planApproved": false,
  "implementationStarted": false,
  "validationComplete": false,
  "metadata": {
    "createdAt": "2024-01-01T00:00:00.000Z",
    "updatedAt": "2024-01-01T00:00:00.000Z",
    "taskDescription": "legacy"
  }
}`
	if err := os.WriteFile(repo.StatePath(), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := repo.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if s.CurrentPhase != workflow.PhaseResearch || s.TaskID != "ENG-1" {
		t.Errorf("unexpected state %+v", s)
	}
	if s.SchemaVersion != workflow.SchemaVersion {
		t.Errorf("expected schema version to default to %d", workflow.SchemaVersion)
	}
}

func TestSaveState_Nil(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())
	if err := repo.SaveState(nil); err == nil {
		t.Error("expected error for nil state")
	}
}

func TestReadStateFile(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())
	if _, err := repo.ReadStateFile(); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
	if err := repo.SaveState(workflow.NewState(time.Now())); err != nil {
		t.Fatal(err)
	}
	data, err := repo.ReadStateFile()
	if err != nil {
		t.Fatalf("ReadStateFile failed: %v", err)
	}
	if err := ValidateStateDocument(data); err != nil {
		t.Errorf("saved state should satisfy schema: %v", err)
	}
}
