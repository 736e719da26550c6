package watch_test

import (
	"testing"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/watch"
)

func TestDocumentFilter(t *testing.T) {
	accept := watch.DocumentFilter()

	tests := []struct {
		path string
		want bool
	}{
		{"mcpDocs/research/2025-03-14-add-login.md", true},
		{"mcpDocs/plans/2025-03-14-ENG-1-add-login.md", true},
		{"mcpDocs/plans/2025-03-14-ENG-1-add-login.MD", true},
		{"mcpDocs/plans/.2025-03-14-add-login.md.swp", false},
		{"mcpDocs/plans/.hidden.md", false},
		{"mcpDocs/plans/notes.md~", false},
		{"mcpDocs/plans/draft.md.tmp", false},
		{"mcpDocs/plans/notes.txt", false},
	}

	for _, tt := range tests {
		if got := accept(tt.path); got != tt.want {
			t.Errorf("DocumentFilter(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGlobFilter(t *testing.T) {
	if !watch.GlobFilter(nil, nil)("anything.txt") {
		t.Error("empty filter should accept everything")
	}

	accept := watch.GlobFilter([]string{"2025-*.md"}, []string{"*-draft.md"})
	if !accept("plans/2025-03-14-login.md") {
		t.Error("expected dated plan to pass")
	}
	if accept("plans/2025-03-14-login-draft.md") {
		t.Error("expected draft to be excluded")
	}
	if accept("plans/README.md") {
		t.Error("expected undated file to be rejected")
	}
}
