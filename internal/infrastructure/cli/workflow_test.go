package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
)

func TestCLI_FullWorkflow(t *testing.T) {
	root := t.TempDir()

	out := mustRun(t, root, "research", "Add OAuth login", "--ticket", "ENG-42")
	if !strings.Contains(out, "Starting research phase") {
		t.Fatalf("unexpected research output:\n%s", out)
	}
	st := readStatus(t, root)
	if st.CurrentPhase != workflow.PhaseResearch || st.TaskID != "ENG-42" {
		t.Fatalf("unexpected status %+v", st)
	}
	if !strings.HasSuffix(st.ResearchPath, "-ENG-42-add-oauth-login.md") {
		t.Fatalf("unexpected research path %s", st.ResearchPath)
	}
	writeDoc(t, st.ResearchPath)

	mustRun(t, root, "plan")
	st = readStatus(t, root)
	if st.CurrentPhase != workflow.PhasePlan {
		t.Fatalf("expected plan phase, got %s", st.CurrentPhase)
	}
	writeDoc(t, st.PlanPath)

	out = mustRun(t, root, "approve", "-m", "looks good")
	if !strings.Contains(out, "Plan approved") {
		t.Fatalf("unexpected approve output:\n%s", out)
	}

	mustRun(t, root, "implement")
	mustRun(t, root, "complete", "implementation")
	if st := readStatus(t, root); st.CurrentPhase != workflow.PhaseValidate {
		t.Fatalf("expected validate phase, got %s", st.CurrentPhase)
	}

	out = mustRun(t, root, "complete", "validation", "--passed", "-m", "all green")
	if !strings.Contains(out, "PASSED") {
		t.Fatalf("unexpected validation output:\n%s", out)
	}
	st = readStatus(t, root)
	if st.CurrentPhase != workflow.PhaseIdle || !st.ValidationComplete {
		t.Fatalf("unexpected final status %+v", st)
	}

	mustRun(t, root, "reset")
	if st := readStatus(t, root); st.TaskID != "" || st.ImplementationStarted {
		t.Fatalf("reset left state behind %+v", st)
	}
}

func TestCLI_BlockedExitCode(t *testing.T) {
	root := t.TempDir()

	out, err := runCLI(t, root, "implement")
	var cliErr *CLIError
	if !errors.As(err, &cliErr) || cliErr.ExitCode != blockedExitCode {
		t.Fatalf("expected blocked CLIError, got %v", err)
	}
	if !strings.Contains(out, "BLOCKED") {
		t.Fatalf("blocked guidance should still be printed:\n%s", out)
	}
}

func TestCLI_ErrorsCarryHints(t *testing.T) {
	root := t.TempDir()

	_, err := runCLI(t, root, "approve")
	var cliErr *CLIError
	if !errors.As(err, &cliErr) || cliErr.Hint == "" {
		t.Fatalf("expected CLIError with hint, got %v", err)
	}
}

func TestCLI_RejectPlan(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "research", "task")
	writeDoc(t, readStatus(t, root).ResearchPath)
	mustRun(t, root, "plan")
	writeDoc(t, readStatus(t, root).PlanPath)
	mustRun(t, root, "approve")

	out := mustRun(t, root, "approve", "--reject", "-m", "split it up")
	if !strings.Contains(out, "Plan rejected") || !strings.Contains(out, "split it up") {
		t.Fatalf("unexpected reject output:\n%s", out)
	}
	if readStatus(t, root).PlanApproved {
		t.Fatal("plan should no longer be approved")
	}
}

func TestCLI_CompleteValidationNeedsOutcome(t *testing.T) {
	root := t.TempDir()
	if _, err := runCLI(t, root, "complete", "validation"); err == nil {
		t.Fatal("expected error without --passed or --failed")
	}
	if _, err := runCLI(t, root, "complete", "validation", "--passed", "--failed"); err == nil {
		t.Fatal("expected error with both outcomes")
	}
}

func TestCLI_CompleteResearchWithExplicitPath(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "research", "Fix bug")

	doc := filepath.Join(root, "notes", "findings.md")
	writeDoc(t, doc)

	out := mustRun(t, root, "complete", "research", doc)
	if !strings.Contains(out, "Recorded "+doc) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	st := readStatus(t, root)
	if st.CurrentPhase != workflow.PhaseIdle || st.ResearchPath != doc || !st.HasResearch {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestCLI_CompletePlanOutsidePhase(t *testing.T) {
	root := t.TempDir()
	_, err := runCLI(t, root, "complete", "plan", filepath.Join(root, "plan.md"))
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}
