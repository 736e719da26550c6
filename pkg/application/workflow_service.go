package application

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/flowgate/pkg/domain/events"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	"github.com/felixgeelhaar/flowgate/pkg/storage"
)

// DiscoveryStrategy selects among same-day artifacts when the recorded path
// is missing.
type DiscoveryStrategy string

const (
	// DiscoveryByName picks the lexicographically last matching filename.
	DiscoveryByName DiscoveryStrategy = "name"
	// DiscoveryByModTime picks the most recently modified file, breaking ties by name.
	DiscoveryByModTime DiscoveryStrategy = "mtime"
)

// IsValid returns true if the strategy is known.
func (d DiscoveryStrategy) IsValid() bool {
	return d == DiscoveryByName || d == DiscoveryByModTime
}

// WorkflowRepository is the storage the workflow service needs.
type WorkflowRepository interface {
	Initialize() error
	LoadState() (*workflow.State, error)
	SaveState(s *workflow.State) error
	ArtifactExists(path string) bool
	ListArtifacts(kind workflow.ArtifactKind) ([]storage.ArtifactFile, error)
	EnsureArtifactDir(kind workflow.ArtifactKind) (string, error)
}

// WorkflowStatus is a snapshot of the workflow for reporting.
type WorkflowStatus struct {
	Status                string         `json:"status"`
	CurrentPhase          workflow.Phase `json:"currentPhase"`
	HasResearch           bool           `json:"hasResearch"`
	HasPlan               bool           `json:"hasPlan"`
	PlanApproved          bool           `json:"planApproved"`
	CanImplement          bool           `json:"canImplement"`
	CanValidate           bool           `json:"canValidate"`
	ImplementationStarted bool           `json:"implementationStarted"`
	ValidationComplete    bool           `json:"validationComplete"`
	ResearchPath          string         `json:"researchPath,omitempty"`
	PlanPath              string         `json:"planPath,omitempty"`
	TaskID                string         `json:"taskId,omitempty"`
	TaskDescription       string         `json:"taskDescription,omitempty"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// WorkflowService owns the workflow record of one task root: the phase
// transition rules, artifact discovery and status reporting. Each public
// method loads the record on entry and persists every mutation before it
// returns.
type WorkflowService struct {
	mu        sync.Mutex
	repo      WorkflowRepository
	recorder  events.Recorder
	logger    *slog.Logger
	now       func() time.Time
	discovery DiscoveryStrategy
	actor     string
	state     *workflow.State
}

// WorkflowOption configures a WorkflowService.
type WorkflowOption func(*WorkflowService)

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(logger *slog.Logger) WorkflowOption {
	return func(s *WorkflowService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for timestamps and date stamps.
func WithClock(now func() time.Time) WorkflowOption {
	return func(s *WorkflowService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecorder records every transition into the given history.
func WithRecorder(r events.Recorder) WorkflowOption {
	return func(s *WorkflowService) {
		s.recorder = r
	}
}

// WithDiscoveryStrategy selects how same-day artifacts are chosen.
func WithDiscoveryStrategy(d DiscoveryStrategy) WorkflowOption {
	return func(s *WorkflowService) {
		if d.IsValid() {
			s.discovery = d
		}
	}
}

// WithActor names who performs transitions in the history (default "agent").
func WithActor(actor string) WorkflowOption {
	return func(s *WorkflowService) {
		if actor != "" {
			s.actor = actor
		}
	}
}

// NewWorkflowService loads the workflow record from repo. It never fails: a
// missing, unreadable or corrupt record yields a fresh idle one.
func NewWorkflowService(repo WorkflowRepository, opts ...WorkflowOption) *WorkflowService {
	s := &WorkflowService{
		repo:      repo,
		logger:    slog.Default(),
		now:       time.Now,
		discovery: DiscoveryByName,
		actor:     "agent",
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := repo.Initialize(); err != nil {
		s.logger.Warn("failed to create state directory", "error", err)
	}
	s.state = s.loadState()
	return s
}

func (s *WorkflowService) clock() time.Time {
	return s.now().UTC()
}

func (s *WorkflowService) loadState() *workflow.State {
	st, err := s.repo.LoadState()
	if err != nil {
		if !errors.Is(err, storage.ErrStateNotFound) {
			s.logger.Warn("failed to load workflow state, starting fresh", "error", err)
		}
		return workflow.NewState(s.clock())
	}
	return st
}

// Reload replaces the in-memory record with what is on disk. Every public
// method already does this on entry; Reload exists for callers that only
// want to pick up external changes.
func (s *WorkflowService) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
}

// refresh rereads the record so that changes written by another process
// (the CLI next to a running MCP server) are neither missed nor overwritten.
func (s *WorkflowService) refresh() {
	s.state = s.loadState()
}

// CurrentPhase returns the active phase.
func (s *WorkflowService) CurrentPhase() workflow.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.state.CurrentPhase
}

// State returns a copy of the workflow record.
func (s *WorkflowService) State() *workflow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.state.Clone()
}

// HasResearch reports whether the research document is present, discovering
// it when the workflow is in the research phase and no path is recorded.
func (s *WorkflowService) HasResearch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.hasArtifact(workflow.ArtifactResearch)
}

// HasPlan reports whether the plan document is present, discovering it when
// the workflow is in the plan phase and no path is recorded.
func (s *WorkflowService) HasPlan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.hasArtifact(workflow.ArtifactPlan)
}

// IsPlanApproved reports whether the plan was approved.
func (s *WorkflowService) IsPlanApproved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.state.PlanApproved
}

// CanImplement reports whether research and plan exist and the plan is approved.
func (s *WorkflowService) CanImplement() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.canImplement()
}

// CanValidate reports whether implementation was ever started.
func (s *WorkflowService) CanValidate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.state.CanValidate()
}

func (s *WorkflowService) canImplement() bool {
	return s.hasArtifact(workflow.ArtifactResearch) &&
		s.hasArtifact(workflow.ArtifactPlan) &&
		s.state.PlanApproved
}

// hasArtifact checks the recorded path first and falls back to discovery.
// Listing failures count as absent.
func (s *WorkflowService) hasArtifact(kind workflow.ArtifactKind) bool {
	if path := s.state.ArtifactPath(kind); path != "" && s.repo.ArtifactExists(path) {
		return true
	}

	if s.state.CurrentPhase != kind.Phase() || s.state.Metadata.TaskDescription == "" {
		return false
	}

	files, err := s.repo.ListArtifacts(kind)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("artifact discovery failed, treating as absent", "kind", kind, "error", err)
		}
		return false
	}

	chosen := selectArtifact(files, workflow.DateStamp(s.clock()), s.discovery)
	if chosen == nil {
		return false
	}

	s.state.SetArtifactPath(kind, chosen.Path)
	if err := s.save(); err != nil {
		s.logger.Warn("failed to persist discovered artifact", "kind", kind, "path", chosen.Path, "error", err)
	}
	s.logger.Info("artifact discovered", "kind", kind, "path", chosen.Path)
	s.record(events.EventTypeArtifactDiscovered, s.state.CurrentPhase, s.state.CurrentPhase, map[string]interface{}{
		"kind": string(kind),
		"path": chosen.Path,
	})
	return true
}

// selectArtifact returns the file matching today's date stamp that the
// strategy prefers, or nil.
func selectArtifact(files []storage.ArtifactFile, dateStamp string, strategy DiscoveryStrategy) *storage.ArtifactFile {
	var matches []storage.ArtifactFile
	for _, f := range files {
		if workflow.MatchesDiscovery(f.Name, dateStamp) {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if strategy == DiscoveryByModTime && !matches[i].ModTime.Equal(matches[j].ModTime) {
			return matches[i].ModTime.Before(matches[j].ModTime)
		}
		return matches[i].Name < matches[j].Name
	})
	chosen := matches[len(matches)-1]
	return &chosen
}

// precondition returns the violation that blocks event, if any.
func (s *WorkflowService) precondition(event string) error {
	switch event {
	case workflow.EventStartPlan:
		if !s.hasArtifact(workflow.ArtifactResearch) {
			return workflow.ErrResearchRequired
		}
	case workflow.EventStartImplementation:
		if !s.canImplement() {
			return workflow.ErrPlanNotApproved
		}
	case workflow.EventStartValidation:
		if !s.state.CanValidate() {
			return workflow.ErrImplementationRequired
		}
	}
	return nil
}

// transition checks preconditions, moves the phase through the state
// machine, applies mutate and persists. On any failure the record is left as
// it was.
func (s *WorkflowService) transition(event string, metadata map[string]interface{}, mutate func(st *workflow.State)) error {
	if err := s.precondition(event); err != nil {
		s.logger.Info("transition blocked", "event", event, "phase", s.state.CurrentPhase, "reason", err)
		return err
	}

	fsm, err := workflow.NewPhaseStateMachine(s.state.CurrentPhase, func(ev string) bool {
		return s.precondition(ev) == nil
	})
	if err != nil {
		return err
	}
	if err := fsm.Transition(event); err != nil {
		s.logger.Info("transition rejected", "event", event, "phase", s.state.CurrentPhase)
		return err
	}

	prev := s.state.Clone()
	s.state.CurrentPhase = fsm.Current()
	if mutate != nil {
		mutate(s.state)
	}
	if err := s.save(); err != nil {
		s.state = prev
		return err
	}

	s.logger.Debug("phase transition", "event", event, "from", prev.CurrentPhase, "to", s.state.CurrentPhase)
	s.record(event, prev.CurrentPhase, s.state.CurrentPhase, metadata)
	return nil
}

// update applies a change that does not move the phase.
func (s *WorkflowService) update(eventType string, mutate func(st *workflow.State)) error {
	prev := s.state.Clone()
	mutate(s.state)
	if err := s.save(); err != nil {
		s.state = prev
		return err
	}
	s.record(eventType, s.state.CurrentPhase, s.state.CurrentPhase, nil)
	return nil
}

func (s *WorkflowService) save() error {
	s.state.Touch(s.clock())
	if err := s.repo.SaveState(s.state); err != nil {
		return fmt.Errorf("save workflow state: %w", err)
	}
	return nil
}

func (s *WorkflowService) record(eventType string, from, to workflow.Phase, metadata map[string]interface{}) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Append(&events.Event{
		Type:      eventType,
		From:      from,
		To:        to,
		TaskID:    s.state.TaskID,
		Actor:     s.actor,
		Timestamp: s.clock(),
		Metadata:  metadata,
	})
	if err != nil {
		s.logger.Warn("failed to record workflow event", "type", eventType, "error", err)
	}
}

// StartResearch enters the research phase for a new task. researchPath is
// where the research document is expected to appear.
func (s *WorkflowService) StartResearch(taskDescription, taskID, researchPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	meta := map[string]interface{}{"task_description": taskDescription}
	return s.transition(workflow.EventStartResearch, meta, func(st *workflow.State) {
		st.TaskID = taskID
		st.ResearchPath = researchPath
		st.Metadata.TaskDescription = taskDescription
	})
}

// CompleteResearch records the research document at path and returns to idle.
func (s *WorkflowService) CompleteResearch(researchPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	meta := map[string]interface{}{"path": researchPath}
	return s.transition(workflow.EventCompleteResearch, meta, func(st *workflow.State) {
		st.ResearchPath = researchPath
	})
}

// StartPlanning enters the plan phase. It fails with ErrResearchRequired
// when no research document is present.
func (s *WorkflowService) StartPlanning(planPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	return s.transition(workflow.EventStartPlan, nil, func(st *workflow.State) {
		st.PlanPath = planPath
	})
}

// CompletePlanning records the plan document at path and returns to idle.
func (s *WorkflowService) CompletePlanning(planPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	meta := map[string]interface{}{"path": planPath}
	return s.transition(workflow.EventCompletePlan, meta, func(st *workflow.State) {
		st.PlanPath = planPath
	})
}

// ApprovePlan marks the plan approved. It fails with ErrPlanRequired when no
// plan document is present.
func (s *WorkflowService) ApprovePlan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	if !s.hasArtifact(workflow.ArtifactPlan) {
		s.logger.Info("plan approval blocked", "reason", workflow.ErrPlanRequired)
		return workflow.ErrPlanRequired
	}
	return s.update(events.EventTypePlanApproved, func(st *workflow.State) {
		st.PlanApproved = true
	})
}

// RejectPlan withdraws plan approval.
func (s *WorkflowService) RejectPlan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	return s.update(events.EventTypePlanRejected, func(st *workflow.State) {
		st.PlanApproved = false
	})
}

// StartImplementation enters the implement phase. It fails with
// ErrPlanNotApproved unless research and an approved plan exist.
func (s *WorkflowService) StartImplementation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	return s.transition(workflow.EventStartImplementation, nil, func(st *workflow.State) {
		st.ImplementationStarted = true
	})
}

// StartValidation enters the validate phase. It fails with
// ErrImplementationRequired until implementation has been started.
func (s *WorkflowService) StartValidation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	return s.transition(workflow.EventStartValidation, nil, nil)
}

// CompleteValidation records the validation result and returns to idle.
func (s *WorkflowService) CompleteValidation(passed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	meta := map[string]interface{}{"passed": passed}
	return s.transition(workflow.EventCompleteValidation, meta, func(st *workflow.State) {
		st.ValidationComplete = passed
	})
}

// Reset replaces the record with a fresh one.
func (s *WorkflowService) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	return s.transition(workflow.EventReset, nil, func(st *workflow.State) {
		*st = *workflow.NewState(s.clock())
	})
}

// SyncToFileSystem returns the workflow to idle when the active phase's
// document has appeared on disk. Callers must sync before gating on the
// current phase.
func (s *WorkflowService) SyncToFileSystem() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	meta := map[string]interface{}{"trigger": events.EventTypeSynced}

	if s.state.CurrentPhase == workflow.PhaseResearch && s.hasArtifact(workflow.ArtifactResearch) {
		if err := s.transition(workflow.EventCompleteResearch, meta, nil); err != nil {
			return err
		}
		s.logger.Info("research document found, research phase complete", "path", s.state.ResearchPath)
	}

	if s.state.CurrentPhase == workflow.PhasePlan && s.hasArtifact(workflow.ArtifactPlan) {
		if err := s.transition(workflow.EventCompletePlan, meta, nil); err != nil {
			return err
		}
		s.logger.Info("plan document found, plan phase complete", "path", s.state.PlanPath)
	}

	return nil
}

// PlannedArtifactPath creates the directory for kind and returns the path a
// new document for the task should be written to.
func (s *WorkflowService) PlannedArtifactPath(kind workflow.ArtifactKind, ticketID, description string) (string, error) {
	dir, err := s.repo.EnsureArtifactDir(kind)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, workflow.ArtifactFilename(s.clock(), ticketID, description)), nil
}

// StatusMessage tells the caller what to do next.
func (s *WorkflowService) StatusMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return workflow.StatusMessage(s.state, artifactChecker{s})
}

// Status returns a reporting snapshot.
func (s *WorkflowService) Status() WorkflowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()

	msg := workflow.StatusMessage(s.state, artifactChecker{s})
	return WorkflowStatus{
		Status:                msg,
		CurrentPhase:          s.state.CurrentPhase,
		HasResearch:           s.hasArtifact(workflow.ArtifactResearch),
		HasPlan:               s.hasArtifact(workflow.ArtifactPlan),
		PlanApproved:          s.state.PlanApproved,
		CanImplement:          s.canImplement(),
		CanValidate:           s.state.CanValidate(),
		ImplementationStarted: s.state.ImplementationStarted,
		ValidationComplete:    s.state.ValidationComplete,
		ResearchPath:          s.state.ResearchPath,
		PlanPath:              s.state.PlanPath,
		TaskID:                s.state.TaskID,
		TaskDescription:       s.state.Metadata.TaskDescription,
		UpdatedAt:             s.state.Metadata.UpdatedAt,
	}
}

// artifactChecker exposes the unlocked artifact checks to workflow.StatusMessage.
type artifactChecker struct {
	s *WorkflowService
}

func (c artifactChecker) HasResearch() bool { return c.s.hasArtifact(workflow.ArtifactResearch) }
func (c artifactChecker) HasPlan() bool     { return c.s.hasArtifact(workflow.ArtifactPlan) }
