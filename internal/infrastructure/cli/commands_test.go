package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
)

func TestCallCommand(t *testing.T) {
	root := t.TempDir()

	out := mustRun(t, root, "call", "research_codebase", `{"task_description":"Add caching"}`)
	if !strings.Contains(out, "Add caching") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out = mustRun(t, root, "call", "workflow_status")
	if !strings.Contains(out, `"currentPhase": "research"`) {
		t.Fatalf("unexpected status:\n%s", out)
	}

	if _, err := runCLI(t, root, "call", "deploy"); err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if _, err := runCLI(t, root, "call", "approve_plan", `{approved}`); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestCallCommand_List(t *testing.T) {
	out := mustRun(t, t.TempDir(), "call", "--list")
	if got := len(strings.Fields(out)); got != 9 {
		t.Fatalf("expected 9 tools, got %d:\n%s", got, out)
	}
}

func TestStatusCommand_Text(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "research", "Add login", "-t", "ENG-1")

	out := mustRun(t, root, "status")
	for _, want := range []string{"Research", "ENG-1: Add login", workflow.MsgNoResearch} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	root := t.TempDir()

	out := mustRun(t, root, "history")
	if !strings.Contains(out, "No transitions recorded") {
		t.Fatalf("unexpected empty history:\n%s", out)
	}

	mustRun(t, root, "research", "Add login")
	mustRun(t, root, "reset")

	out = mustRun(t, root, "history")
	if !strings.Contains(out, "start_research") || !strings.Contains(out, "reset") {
		t.Fatalf("history missing transitions:\n%s", out)
	}

	out = mustRun(t, root, "history", "--json", "-n", "1")
	var evts []map[string]any
	if err := json.Unmarshal([]byte(out), &evts); err != nil {
		t.Fatalf("history is not JSON: %v", err)
	}
	if len(evts) != 1 || evts[0]["type"] != "reset" {
		t.Fatalf("unexpected events %v", evts)
	}
}

func TestHistoryCommand_Filters(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "research", "Add login", "--ticket", "ENG-7")
	mustRun(t, root, "reset")
	mustRun(t, root, "research", "Fix logout")

	out := mustRun(t, root, "history", "--json", "--task", "ENG-7", "--since", "1h")
	var evts []map[string]any
	if err := json.Unmarshal([]byte(out), &evts); err != nil {
		t.Fatalf("history is not JSON: %v", err)
	}
	if len(evts) == 0 {
		t.Fatal("expected transitions for ENG-7")
	}
	for _, e := range evts {
		if e["task_id"] != "ENG-7" {
			t.Fatalf("unexpected entry %v", e)
		}
	}
}

func TestDoctorCommand(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "research", "Add login")

	out := mustRun(t, root, "doctor")
	if !strings.Contains(out, "Everything looks good") {
		t.Fatalf("unexpected doctor output:\n%s", out)
	}

	ws, _ := wiring.NewWorkspace(root)
	if err := os.WriteFile(ws.Repo.StatePath(), []byte(`{"currentPhase":"deploy"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, root, "doctor")
	if err == nil || !strings.Contains(out, "FAIL") {
		t.Fatalf("expected doctor failure, got %v:\n%s", err, out)
	}
}

func TestConfigCommands(t *testing.T) {
	root := t.TempDir()

	out := mustRun(t, root, "config", "show")
	if !strings.Contains(out, "docs_dir: mcpDocs") {
		t.Fatalf("unexpected config:\n%s", out)
	}

	mustRun(t, root, "config", "init")
	if _, err := os.Stat(filepath.Join(root, ".flowgate", "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := runCLI(t, root, "config", "init"); err == nil {
		t.Fatal("expected error when config exists")
	}
	mustRun(t, root, "config", "init", "--force")
}

func TestOpenAPICommand(t *testing.T) {
	out := mustRun(t, t.TempDir(), "openapi")
	if !strings.Contains(out, "/tools/research_codebase") {
		t.Fatalf("unexpected openapi output:\n%.200s", out)
	}
}

func TestOpenAPICommand_OutputFile(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "openapi.json")
	out := mustRun(t, root, "openapi", "-o", dest)
	if !strings.Contains(out, "Wrote") {
		t.Fatalf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil || !strings.Contains(string(data), `"openapi": "3.0.3"`) {
		t.Fatalf("document not written: %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		if out := mustRun(t, t.TempDir(), "completion", shell); !strings.Contains(out, "flowgate") {
			t.Errorf("%s completion does not mention flowgate", shell)
		}
	}
	if _, err := runCLI(t, t.TempDir(), "completion", "tcsh"); err == nil {
		t.Fatal("expected error for unsupported shell")
	}
}

func TestMCPCommand_UnsupportedTransport(t *testing.T) {
	if _, err := runCLI(t, t.TempDir(), "mcp", "--transport", "carrier-pigeon"); err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}

func TestSyncAfterChange(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "research", "Add login")
	research := readStatus(t, root).ResearchPath

	services, err := loadServices(root)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	syncAfterChange(services.Workflow, &buf, nil)
	if buf.Len() != 0 {
		t.Fatalf("nothing should change before the document exists: %s", buf.String())
	}

	writeDoc(t, research)
	syncAfterChange(services.Workflow, &buf, []string{research})
	if !strings.Contains(buf.String(), "research → idle") {
		t.Fatalf("expected phase change report, got %q", buf.String())
	}
}

func TestInvalidLogFormat(t *testing.T) {
	if _, err := runCLI(t, t.TempDir(), "--log-format", "xml", "status"); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}
