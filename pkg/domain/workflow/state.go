// Package workflow holds the phase model of a research → plan → implement →
// validate workflow: the persisted record, the phase state machine and the
// status summary derived from it.
package workflow

import "time"

// SchemaVersion is the version written into every persisted record.
const SchemaVersion = 1

// Metadata carries bookkeeping about the task under way.
type Metadata struct {
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	TaskDescription string    `json:"taskDescription,omitempty"`
}

// State is the persisted workflow record. There is one per task root.
type State struct {
	SchemaVersion         int      `json:"schemaVersion"`
	CurrentPhase          Phase    `json:"currentPhase"`
	TaskID                string   `json:"taskId,omitempty"`
	ResearchPath          string   `json:"researchPath,omitempty"`
	PlanPath              string   `json:"planPath,omitempty"`
	PlanApproved          bool     `json:"planApproved"`
	ImplementationStarted bool     `json:"implementationStarted"`
	ValidationComplete    bool     `json:"validationComplete"`
	Metadata              Metadata `json:"metadata"`
}

// NewState returns a fresh idle record stamped with now.
func NewState(now time.Time) *State {
	return &State{
		SchemaVersion: SchemaVersion,
		CurrentPhase:  PhaseIdle,
		Metadata: Metadata{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Clone returns a copy of the record. State holds no reference types, so a
// value copy is a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// ArtifactPath returns the recorded path for the given artifact kind.
func (s *State) ArtifactPath(kind ArtifactKind) string {
	switch kind {
	case ArtifactResearch:
		return s.ResearchPath
	case ArtifactPlan:
		return s.PlanPath
	default:
		return ""
	}
}

// SetArtifactPath records the path for the given artifact kind.
func (s *State) SetArtifactPath(kind ArtifactKind, path string) {
	switch kind {
	case ArtifactResearch:
		s.ResearchPath = path
	case ArtifactPlan:
		s.PlanPath = path
	}
}

// CanValidate reports whether validation may start.
func (s *State) CanValidate() bool {
	return s.ImplementationStarted
}

// Touch advances UpdatedAt to now, keeping it strictly increasing even when
// the clock has not moved since the previous save.
func (s *State) Touch(now time.Time) {
	if !now.After(s.Metadata.UpdatedAt) {
		now = s.Metadata.UpdatedAt.Add(time.Microsecond)
	}
	s.Metadata.UpdatedAt = now
}
