package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
)

// ArtifactFile is a directory entry in an artifact directory.
type ArtifactFile struct {
	Name    string
	Path    string
	ModTime time.Time
}

// ArtifactExists reports whether a regular file exists at path.
func (r *FilesystemRepository) ArtifactExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ListArtifacts returns the files in the artifact directory for kind, sorted
// by name. A missing directory yields an error wrapping fs.ErrNotExist.
func (r *FilesystemRepository) ListArtifacts(kind workflow.ArtifactKind) ([]ArtifactFile, error) {
	dir := r.ArtifactDir(kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s artifacts: %w", kind, err)
	}

	files := make([]ArtifactFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f := ArtifactFile{Name: e.Name(), Path: filepath.Join(dir, e.Name())}
		if info, err := e.Info(); err == nil {
			f.ModTime = info.ModTime()
		}
		files = append(files, f)
	}
	return files, nil
}
