package mcp

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	"github.com/felixgeelhaar/mcp-go/testutil"
)

func TestServer_ReadSchemaResource(t *testing.T) {
	server := newTestServer(t)

	client := testutil.NewTestClient(t, server.mcpServer)
	defer client.Close()

	content, err := client.ReadResource("flowgate://schema")
	if err != nil {
		t.Fatalf("read schema resource: %v", err)
	}
	var resp schemaResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if resp.SchemaVersion != SchemaVersion || len(resp.Tools) != 9 || len(resp.Phases) != 5 {
		t.Errorf("unexpected schema %+v", resp)
	}
	if resp.BlockedPrefix != application.BlockedPrefix {
		t.Errorf("blocked prefix = %q", resp.BlockedPrefix)
	}
}

func TestSchemaVersionIsSemver(t *testing.T) {
	if !regexp.MustCompile(`^\d+\.\d+\.\d+$`).MatchString(SchemaVersion) {
		t.Fatalf("SchemaVersion %q is not semver", SchemaVersion)
	}
}

func TestServer_ReadPromptResources(t *testing.T) {
	server := newTestServer(t)

	client := testutil.NewTestClient(t, server.mcpServer)
	defer client.Close()

	for _, name := range []string{"research", "plan", "implement", "validate"} {
		content, err := client.ReadResource("flowgate://prompts/" + name)
		if err != nil {
			t.Fatalf("read %s prompt: %v", name, err)
		}
		if !strings.HasPrefix(content, "# ") {
			t.Errorf("%s prompt should be markdown, got: %.40s", name, content)
		}
	}
}

func TestServer_ReadStateResource(t *testing.T) {
	server := newTestServer(t)
	if _, err := server.handleResearchCodebase(context.Background(), ResearchArgs{TaskDescription: "Fix bug"}); err != nil {
		t.Fatalf("research: %v", err)
	}

	client := testutil.NewTestClient(t, server.mcpServer)
	defer client.Close()

	content, err := client.ReadResource("flowgate://state")
	if err != nil {
		t.Fatalf("read state resource: %v", err)
	}
	var st workflow.State
	if err := json.Unmarshal([]byte(content), &st); err != nil {
		t.Fatalf("state is not JSON: %v", err)
	}
	if st.CurrentPhase != workflow.PhaseResearch || st.Metadata.TaskDescription != "Fix bug" {
		t.Fatalf("unexpected state %+v", st)
	}
}
