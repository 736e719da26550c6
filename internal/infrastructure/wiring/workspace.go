package wiring

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowgate/pkg/storage"
)

// PromptsDir holds optional prompt overrides inside the state directory.
const PromptsDir = "prompts"

// Workspace bundles core infrastructure dependencies of one task root.
type Workspace struct {
	Root   string
	Config *config.Config
	Repo   *storage.FilesystemRepository
	Events *storage.FileEventStore
}

// NewWorkspace loads the config for root and opens its storage. An invalid
// config falls back to defaults; the error is returned alongside the
// workspace. A corrupt history file disables history recording.
func NewWorkspace(root string) (*Workspace, error) {
	var loadErr error
	cfg, err := config.Load(root)
	if err != nil {
		loadErr = fmt.Errorf("config fallback to defaults: %w", err)
		cfg = config.Default()
	}

	repo := storage.NewFilesystemRepository(root, storage.WithDocsDir(cfg.DocsDir))

	eventStore, err := storage.NewFileEventStore(repo.StateDir())
	if err != nil {
		slog.Default().Warn("transition history unreadable, recording disabled", "error", err)
		eventStore = nil
	}

	return &Workspace{
		Root:   repo.Root(),
		Config: cfg,
		Repo:   repo,
		Events: eventStore,
	}, loadErr
}

// PromptOverrideDir returns where prompt overrides are looked up.
func (w *Workspace) PromptOverrideDir() string {
	return filepath.Join(w.Repo.StateDir(), PromptsDir)
}
