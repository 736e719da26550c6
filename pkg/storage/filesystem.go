package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	"github.com/felixgeelhaar/fortify/retry"
)

const StateDir = ".flowgate"
const StateFile = "workflow-state.json"
const EventsFile = "events.jsonl"
const ConfigFile = "config.yaml"
const EnvFile = ".env"

// DefaultDocsDir is the directory under the task root holding artifacts.
const DefaultDocsDir = "mcpDocs"

// ErrStateNotFound is returned by LoadState when no record has been saved yet.
var ErrStateNotFound = errors.New("workflow state not found")

// FilesystemRepository persists the workflow record under <root>/.flowgate
// and locates artifacts under <root>/<docsDir>.
type FilesystemRepository struct {
	root        string
	stateDir    string
	docsDir     string
	retryConfig retry.Config
}

// Option configures a FilesystemRepository.
type Option func(*FilesystemRepository)

// WithDocsDir overrides the artifact directory name (default "mcpDocs").
func WithDocsDir(dir string) Option {
	return func(r *FilesystemRepository) {
		if dir != "" {
			r.docsDir = dir
		}
	}
}

// NewFilesystemRepository creates a repository for the task rooted at root.
// With an empty root the record lives in $HOME/.flowgate and artifacts are
// looked up relative to the working directory.
func NewFilesystemRepository(root string, opts ...Option) *FilesystemRepository {
	stateBase := root
	if root == "" {
		root, _ = os.Getwd()
		stateBase = root
		if home, err := os.UserHomeDir(); err == nil {
			stateBase = home
		}
	}

	r := &FilesystemRepository{
		root:     root,
		stateDir: filepath.Join(stateBase, StateDir),
		docsDir:  DefaultDocsDir,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the task root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// StateDir returns the directory holding the workflow record.
func (r *FilesystemRepository) StateDir() string {
	return r.stateDir
}

// DocsDir returns the absolute artifact directory.
func (r *FilesystemRepository) DocsDir() string {
	return filepath.Join(r.root, r.docsDir)
}

// ArtifactDir returns the directory artifacts of the given kind are written to.
func (r *FilesystemRepository) ArtifactDir(kind workflow.ArtifactKind) string {
	return filepath.Join(r.DocsDir(), kind.Dir())
}

// ResolvePath ensures the path is within the state directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	fullPath := filepath.Join(r.stateDir, filename)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, r.stateDir) || filepath.Dir(cleanPath) != r.stateDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

// Initialize creates the state directory.
func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(r.stateDir, 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", StateDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(r.stateDir)
	return err == nil
}

// EnsureArtifactDir creates the directory for the given artifact kind.
func (r *FilesystemRepository) EnsureArtifactDir(kind workflow.ArtifactKind) (string, error) {
	dir := r.ArtifactDir(kind)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", kind, err)
	}
	return dir, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	// G306: Use 0600 for files
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
