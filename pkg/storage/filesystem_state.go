package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	"github.com/felixgeelhaar/fortify/retry"
)

// StatePath returns the location of the workflow record.
func (r *FilesystemRepository) StatePath() string {
	return filepath.Join(r.stateDir, StateFile)
}

// SaveState writes the whole record, replacing what is on disk.
func (r *FilesystemRepository) SaveState(s *workflow.State) error {
	if s == nil {
		return fmt.Errorf("workflow state is nil")
	}
	path, err := r.ResolvePath(StateFile)
	if err != nil {
		return err
	}
	if err := r.Initialize(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return writeFileAtomic(path, data)
}

// LoadState reads the record. It returns ErrStateNotFound when nothing has
// been saved, and an error for unreadable, malformed or schema-invalid files.
func (r *FilesystemRepository) LoadState() (*workflow.State, error) {
	path, err := r.ResolvePath(StateFile)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to stat state file: %w", err)
	}

	retryer := retry.New[[]byte](r.retryConfig)
	data, err := retryer.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		return os.ReadFile(path)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := ValidateStateDocument(data); err != nil {
		return nil, err
	}

	var s workflow.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if s.SchemaVersion == 0 {
		s.SchemaVersion = workflow.SchemaVersion
	}

	return &s, nil
}

// ReadStateFile returns the raw record bytes.
func (r *FilesystemRepository) ReadStateFile() ([]byte, error) {
	path, err := r.ResolvePath(StateFile)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}
