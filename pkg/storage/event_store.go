package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/flowgate/pkg/domain/events"
	"github.com/google/uuid"
)

// maxHistoryLine bounds a single history entry. Entries carry a task
// description and a few paths, so this leaves a wide margin.
const maxHistoryLine = 1 << 20

// FileEventStore keeps the transition history as hash-chained JSON lines in
// <state dir>/events.jsonl. It implements events.Store.
type FileEventStore struct {
	mu   sync.RWMutex
	dir  string
	path string
	now  func() time.Time
}

// HistoryFilter narrows Query. Zero values match every entry.
type HistoryFilter struct {
	TaskID string
	Since  time.Time
	// Limit keeps only the newest Limit matches.
	Limit int
}

// NewFileEventStore opens the history in dir. The directory is only created by
// the first Append so that opening a store does not initialize a project. An
// unreadable history is an error: appending to it would break the chain.
func NewFileEventStore(dir string) (*FileEventStore, error) {
	s := &FileEventStore{
		dir:  dir,
		path: filepath.Join(dir, EventsFile),
		now:  func() time.Time { return time.Now().UTC() },
	}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the history file location.
func (s *FileEventStore) Path() string {
	return s.path
}

// Append assigns an id and timestamp when missing, links the entry to the
// last one on disk and writes it as one line. The tail is reread on every
// call because other processes append to the same history.
func (s *FileEventStore) Append(e *events.Event) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.read()
	if err != nil {
		return err
	}
	e.PrevHash = ""
	if n := len(prev); n > 0 {
		e.PrevHash = prev[n-1].Hash
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	e.Hash = e.CalculateHash()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close history: %w", cerr)
		}
	}()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// LoadAll returns the whole history, oldest first.
func (s *FileEventStore) LoadAll() ([]*events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

// Query returns the entries matching f, oldest first.
func (s *FileEventStore) Query(f HistoryFilter) ([]*events.Event, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	matched := all[:0]
	for _, e := range all {
		if f.TaskID != "" && e.TaskID != f.TaskID {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		matched = append(matched, e)
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[len(matched)-f.Limit:]
	}
	return matched, nil
}

// VerifyIntegrity walks the chain and describes every broken link or altered
// entry. An empty result means the history is intact.
func (s *FileEventStore) VerifyIntegrity() ([]string, error) {
	evts, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	var violations []string
	prev := ""
	for i, e := range evts {
		where := fmt.Sprintf("line %d (%s, %s -> %s)", i+1, e.Type, e.From, e.To)
		if e.PrevHash != prev {
			violations = append(violations, where+": does not follow the previous entry")
		}
		if e.Hash != e.CalculateHash() {
			violations = append(violations, where+": content was modified")
		}
		prev = e.Hash
	}
	return violations, nil
}

func (s *FileEventStore) read() ([]*events.Event, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var evts []*events.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxHistoryLine)
	for n := 1; scanner.Scan(); n++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e events.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("history line %d: %w", n, err)
		}
		evts = append(evts, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return evts, nil
}
