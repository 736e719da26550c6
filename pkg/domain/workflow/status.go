package workflow

import "fmt"

// ArtifactChecker reports whether the workflow's documents are present.
type ArtifactChecker interface {
	HasResearch() bool
	HasPlan() bool
}

// Status messages, highest priority first.
const (
	MsgImplementing       = "Currently in IMPLEMENTATION phase. After completing all changes, you MUST call the complete_implementation tool."
	MsgValidating         = "Currently in VALIDATION phase. After generating the validation report, you MUST call the complete_validation tool."
	MsgNoResearch         = "No research found. Start with research_codebase to analyze the codebase."
	MsgNoPlan             = "Research complete, but no plan exists. Run create_plan to write the implementation plan."
	MsgPlanNotApproved    = "Plan exists but is not approved. Review and approve it before implementing."
	MsgReadyToImplement   = "Ready to implement! Plan approved and waiting for execution."
	MsgReadyForValidation = "Implementation complete. Run validate_implementation to verify against the plan."
)

// StatusMessage tells the caller what to do next. Only the highest-priority
// condition is reported; artifacts are only consulted once the workflow is
// idle.
func StatusMessage(s *State, artifacts ArtifactChecker) string {
	switch s.CurrentPhase {
	case PhaseImplement:
		return MsgImplementing
	case PhaseValidate:
		return MsgValidating
	case PhaseIdle:
	default:
		return fmt.Sprintf("Currently in %s phase", s.CurrentPhase)
	}

	switch {
	case !artifacts.HasResearch():
		return MsgNoResearch
	case !artifacts.HasPlan():
		return MsgNoPlan
	case !s.PlanApproved:
		return MsgPlanNotApproved
	case !s.ImplementationStarted:
		return MsgReadyToImplement
	default:
		return MsgReadyForValidation
	}
}
