package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/flowgate/pkg/storage"
)

// cliActor is recorded in the transition history for CLI-driven changes.
const cliActor = "cli"

func loadServices(root string, opts ...application.WorkflowOption) (*wiring.AppServices, error) {
	services, loadErr := wiring.BuildAppServices(root, opts...)
	if services == nil {
		return nil, fmt.Errorf("failed to build services: %w", loadErr)
	}
	if loadErr != nil {
		services.Logger.Warn("using default configuration", "error", loadErr)
	}
	return services, nil
}

// getProjectRoot returns --project when given. Otherwise it walks up from the
// working directory to the nearest project holding a state directory, so the
// CLI works from any subdirectory. Without one the working directory is used.
func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, ok := findProjectRoot(cwd); ok {
		return root, nil
	}
	return cwd, nil
}

func findProjectRoot(dir string) (string, bool) {
	for {
		if info, err := os.Stat(filepath.Join(dir, storage.StateDir)); err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func loadServicesForCurrentDir() (*wiring.AppServices, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	slog.Debug("using project root", "root", root)
	return loadServices(root, application.WithActor(cliActor))
}
