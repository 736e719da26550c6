package wiring

import (
	"log/slog"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/prompts"
	"github.com/felixgeelhaar/flowgate/pkg/application"
)

// AppServices exposes the application layer services wired together with a workspace.
type AppServices struct {
	Workspace  *Workspace
	Workflow   *application.WorkflowService
	Gatekeeper *application.Gatekeeper
	Prompts    *prompts.Library
	Logger     *slog.Logger
}

// BuildAppServices constructs the services for a task root. Extra options
// are applied to the workflow service after the configured ones. Services
// are returned even when the config could not be loaded.
func BuildAppServices(root string, opts ...application.WorkflowOption) (*AppServices, error) {
	workspace, loadErr := NewWorkspace(root)
	logger := slog.Default().With("root", workspace.Root)

	wfOpts := []application.WorkflowOption{
		application.WithLogger(logger),
		application.WithDiscoveryStrategy(workspace.Config.DiscoveryStrategy()),
	}
	if workspace.Events != nil {
		wfOpts = append(wfOpts, application.WithRecorder(workspace.Events))
	}
	wfOpts = append(wfOpts, opts...)

	workflow := application.NewWorkflowService(workspace.Repo, wfOpts...)
	library := prompts.NewLibrary(workspace.PromptOverrideDir())

	return &AppServices{
		Workspace:  workspace,
		Workflow:   workflow,
		Gatekeeper: application.NewGatekeeper(workflow, library, logger),
		Prompts:    library,
		Logger:     logger,
	}, loadErr
}
