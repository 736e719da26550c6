package workflow

import (
	"encoding/json"
	"fmt"
)

// Phase is the coarse-grained stage the workflow is in.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseResearch  Phase = "research"
	PhasePlan      Phase = "plan"
	PhaseImplement Phase = "implement"
	PhaseValidate  Phase = "validate"
)

// AllPhases returns all phases in workflow order.
func AllPhases() []Phase {
	return []Phase{
		PhaseIdle,
		PhaseResearch,
		PhasePlan,
		PhaseImplement,
		PhaseValidate,
	}
}

// IsValid returns true if the phase is a known phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseIdle, PhaseResearch, PhasePlan, PhaseImplement, PhaseValidate:
		return true
	default:
		return false
	}
}

func (p Phase) String() string {
	return string(p)
}

// IsIdle returns true if no phase is active.
func (p Phase) IsIdle() bool {
	return p == PhaseIdle
}

// Artifact returns the artifact kind this phase produces, if any.
func (p Phase) Artifact() (ArtifactKind, bool) {
	switch p {
	case PhaseResearch:
		return ArtifactResearch, true
	case PhasePlan:
		return ArtifactPlan, true
	default:
		return "", false
	}
}

// DisplayName returns a human-readable name for the phase.
func (p Phase) DisplayName() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseResearch:
		return "Research"
	case PhasePlan:
		return "Plan"
	case PhaseImplement:
		return "Implement"
	case PhaseValidate:
		return "Validate"
	default:
		return string(p)
	}
}

// ParsePhase parses a string into a Phase.
func ParsePhase(str string) (Phase, error) {
	p := Phase(str)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid phase: %q", str)
	}
	return p, nil
}

// MarshalJSON implements json.Marshaler.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// UnmarshalJSON implements json.Unmarshaler. Unknown phases are rejected so a
// damaged record is never half-loaded.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParsePhase(str)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
