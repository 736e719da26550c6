package workflow

import "errors"

// Precondition violations. A transition rejected with one of these leaves the
// record unchanged.
var (
	// ErrResearchRequired indicates planning was attempted without research.
	ErrResearchRequired = errors.New("cannot plan without research")

	// ErrPlanRequired indicates approval was attempted without a plan document.
	ErrPlanRequired = errors.New("cannot approve nonexistent plan")

	// ErrPlanNotApproved indicates implementation was attempted without an approved plan.
	ErrPlanNotApproved = errors.New("cannot implement without approved plan")

	// ErrImplementationRequired indicates validation was attempted before implementation.
	ErrImplementationRequired = errors.New("cannot validate without implementation")

	// ErrInvalidTransition indicates the event is not accepted in the current phase.
	ErrInvalidTransition = errors.New("invalid phase transition")
)

// TransitionError provides details about an event the phase machine refused.
type TransitionError struct {
	Event string
	From  Phase
}

func (e *TransitionError) Error() string {
	return "the action '" + e.Event + "' is not allowed while the workflow is in the '" + string(e.From) + "' phase"
}

// Is allows errors.Is to work with TransitionError.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
