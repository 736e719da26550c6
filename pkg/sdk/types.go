package sdk

import "time"

// Phase names the workflow phase reported by the server.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseResearch  Phase = "research"
	PhasePlan      Phase = "plan"
	PhaseImplement Phase = "implement"
	PhaseValidate  Phase = "validate"
)

// Status is the summary returned by the workflow_status tool.
type Status struct {
	Status                string    `json:"status"`
	CurrentPhase          Phase     `json:"currentPhase"`
	HasResearch           bool      `json:"hasResearch"`
	HasPlan               bool      `json:"hasPlan"`
	PlanApproved          bool      `json:"planApproved"`
	CanImplement          bool      `json:"canImplement"`
	CanValidate           bool      `json:"canValidate"`
	ImplementationStarted bool      `json:"implementationStarted"`
	ValidationComplete    bool      `json:"validationComplete"`
	ResearchPath          string    `json:"researchPath,omitempty"`
	PlanPath              string    `json:"planPath,omitempty"`
	TaskID                string    `json:"taskId,omitempty"`
	TaskDescription       string    `json:"taskDescription,omitempty"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// State is the persisted workflow record exposed as flowgate://state.
type State struct {
	SchemaVersion         int           `json:"schemaVersion"`
	CurrentPhase          Phase         `json:"currentPhase"`
	TaskID                string        `json:"taskId,omitempty"`
	ResearchPath          string        `json:"researchPath,omitempty"`
	PlanPath              string        `json:"planPath,omitempty"`
	PlanApproved          bool          `json:"planApproved"`
	ImplementationStarted bool          `json:"implementationStarted"`
	ValidationComplete    bool          `json:"validationComplete"`
	Metadata              StateMetadata `json:"metadata"`
}

// StateMetadata carries bookkeeping about the task under way.
type StateMetadata struct {
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	TaskDescription string    `json:"taskDescription,omitempty"`
}

// Reply is the text a phase tool returned. Blocked replies explain which
// prerequisite is missing; they are guidance, not failures.
type Reply struct {
	Text    string
	Blocked bool
}

// SchemaInfo describes the tool surface a server exposes.
type SchemaInfo struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
	Phases        []Phase  `json:"phases"`
	BlockedPrefix string   `json:"blocked_prefix"`
}
