package application_test

import (
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/flowgate/pkg/domain/events"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	"github.com/felixgeelhaar/flowgate/pkg/storage"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// FailingRepo wraps the filesystem repository, fails saves or listings on
// demand and counts listings.
type FailingRepo struct {
	*storage.FilesystemRepository
	SaveError error
	ListError error

	mu        sync.Mutex
	ListCalls int
}

func (r *FailingRepo) ListArtifacts(kind workflow.ArtifactKind) ([]storage.ArtifactFile, error) {
	r.mu.Lock()
	r.ListCalls++
	r.mu.Unlock()
	if r.ListError != nil {
		return nil, r.ListError
	}
	return r.FilesystemRepository.ListArtifacts(kind)
}

func (r *FailingRepo) Listings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ListCalls
}

func (r *FailingRepo) SaveState(s *workflow.State) error {
	if r.SaveError != nil {
		return r.SaveError
	}
	return r.FilesystemRepository.SaveState(s)
}

// MemoryRecorder keeps appended events in memory.
type MemoryRecorder struct {
	mu     sync.Mutex
	Events []*events.Event
}

func (m *MemoryRecorder) Append(e *events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, e)
	return nil
}

func (m *MemoryRecorder) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}

// StaticPrompts returns "<name> prompt" for every name.
type StaticPrompts struct{}

func (StaticPrompts) Prompt(name string) (string, error) {
	return name + " prompt", nil
}

func newTestService(t *testing.T, opts ...application.WorkflowOption) (*application.WorkflowService, *storage.FilesystemRepository) {
	t.Helper()
	repo := storage.NewFilesystemRepository(t.TempDir())
	opts = append([]application.WorkflowOption{application.WithClock(fixedClock)}, opts...)
	return application.NewWorkflowService(repo, opts...), repo
}
