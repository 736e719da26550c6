package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/watch"
	"github.com/felixgeelhaar/flowgate/pkg/application"
)

func resetFlags() {
	projectPath = ""
	verbose = false
	logFormat = "text"
	researchTicket = ""
	planTicketFile = ""
	approveReject = false
	approveFeedback = ""
	validationPassed = false
	validationFailed = false
	validationSummary = ""
	statusJSON = false
	historyLimit = 0
	historyTask = ""
	historySince = 0
	historyJSON = false
	callList = false
	configInitForce = false
	openapiOutput = ""
	watchDebounce = watch.DefaultDebounce
}

// runCLI executes the root command against root and returns its stdout.
func runCLI(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs(append([]string{"--project", root}, args...))
	defer RootCmd.SetArgs(nil)

	err := RootCmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, root string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, root, args...)
	if err != nil {
		t.Fatalf("flowgate %v: %v\n%s", args, err, out)
	}
	return out
}

func readStatus(t *testing.T, root string) application.WorkflowStatus {
	t.Helper()
	out := mustRun(t, root, "status", "--json")
	var st application.WorkflowStatus
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("status is not JSON: %v\n%s", err, out)
	}
	return st
}

func writeDoc(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("# doc\n"), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
