package workflow

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Phase machine events.
const (
	EventStartResearch       = "start_research"
	EventStartPlan           = "start_plan"
	EventStartImplementation = "start_implementation"
	EventStartValidation     = "start_validation"
	EventCompleteResearch    = "complete_research"
	EventCompletePlan        = "complete_plan"
	EventCompleteValidation  = "complete_validation"
	EventReset               = "reset"
)

// State identifiers for statekit. These must remain untyped string constants
// for statekit.StateID compatibility and are kept in sync with the Phase values.
const (
	stateIdle      = "idle"
	stateResearch  = "research"
	statePlan      = "plan"
	stateImplement = "implement"
	stateValidate  = "validate"
)

func init() {
	stateMap := map[string]Phase{
		stateIdle:      PhaseIdle,
		stateResearch:  PhaseResearch,
		statePlan:      PhasePlan,
		stateImplement: PhaseImplement,
		stateValidate:  PhaseValidate,
	}
	for fsmState, phase := range stateMap {
		if fsmState != string(phase) {
			panic(fmt.Sprintf("FSM state %q does not match Phase %q - constants are out of sync", fsmState, phase))
		}
	}
}

// eventTargets maps every event to the phase it leads to.
var eventTargets = map[string]Phase{
	EventStartResearch:       PhaseResearch,
	EventStartPlan:           PhasePlan,
	EventStartImplementation: PhaseImplement,
	EventStartValidation:     PhaseValidate,
	EventCompleteResearch:    PhaseIdle,
	EventCompletePlan:        PhaseIdle,
	EventCompleteValidation:  PhaseIdle,
	EventReset:               PhaseIdle,
}

// reentrant events may fire while the workflow is already in their target
// phase. statekit leaves the state untouched in that case, so they are
// resolved without the interpreter.
var reentrant = map[string]bool{
	EventStartResearch:       true,
	EventStartPlan:           true,
	EventStartImplementation: true,
	EventStartValidation:     true,
	EventCompleteValidation:  true,
	EventReset:               true,
}

// PhaseContext carries the precondition guard into the machine.
type PhaseContext struct {
	Guard func(event string) bool
}

// PhaseStateMachine resolves phase transitions.
type PhaseStateMachine struct {
	interpreter *statekit.Interpreter[PhaseContext]
	guard       func(event string) bool
}

// NewPhaseStateMachine builds a machine positioned at initial. guard is
// consulted for the guarded events (planning, implementation, validation);
// nil allows everything.
func NewPhaseStateMachine(initial Phase, guard func(event string) bool) (*PhaseStateMachine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("invalid initial phase: %q", initial)
	}
	if guard == nil {
		guard = func(string) bool { return true }
	}

	builder := statekit.NewMachine[PhaseContext]("workflow-phase-machine").
		WithInitial(statekit.StateID(initial)).
		WithContext(PhaseContext{Guard: guard}).
		WithGuard("precondition", func(ctx PhaseContext, e statekit.Event) bool {
			return ctx.Guard(string(e.Type))
		})

	builder.State(stateIdle).
		On(EventStartResearch).Target(stateResearch).
		On(EventStartPlan).Target(statePlan).Guard("precondition").
		On(EventStartImplementation).Target(stateImplement).Guard("precondition").
		On(EventStartValidation).Target(stateValidate).Guard("precondition").
		Done()

	builder.State(stateResearch).
		On(EventStartPlan).Target(statePlan).Guard("precondition").
		On(EventStartImplementation).Target(stateImplement).Guard("precondition").
		On(EventStartValidation).Target(stateValidate).Guard("precondition").
		On(EventCompleteResearch).Target(stateIdle).
		On(EventCompleteValidation).Target(stateIdle).
		On(EventReset).Target(stateIdle).
		Done()

	builder.State(statePlan).
		On(EventStartResearch).Target(stateResearch).
		On(EventStartImplementation).Target(stateImplement).Guard("precondition").
		On(EventStartValidation).Target(stateValidate).Guard("precondition").
		On(EventCompletePlan).Target(stateIdle).
		On(EventCompleteValidation).Target(stateIdle).
		On(EventReset).Target(stateIdle).
		Done()

	builder.State(stateImplement).
		On(EventStartResearch).Target(stateResearch).
		On(EventStartPlan).Target(statePlan).Guard("precondition").
		On(EventStartValidation).Target(stateValidate).Guard("precondition").
		On(EventCompleteValidation).Target(stateIdle).
		On(EventReset).Target(stateIdle).
		Done()

	builder.State(stateValidate).
		On(EventStartResearch).Target(stateResearch).
		On(EventStartPlan).Target(statePlan).Guard("precondition").
		On(EventStartImplementation).Target(stateImplement).Guard("precondition").
		On(EventCompleteValidation).Target(stateIdle).
		On(EventReset).Target(stateIdle).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build phase machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &PhaseStateMachine{interpreter: interpreter, guard: guard}, nil
}

// Transition fires event and returns a *TransitionError if the machine did
// not accept it.
func (sm *PhaseStateMachine) Transition(event string) error {
	before := sm.Current()

	target, known := eventTargets[event]
	if known && target == before && reentrant[event] {
		if isGuarded(event) && !sm.guard(event) {
			return &TransitionError{Event: event, From: before}
		}
		return nil
	}

	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if sm.Current() != before {
		return nil
	}
	// statekit leaves the state unchanged both for unknown events and for
	// failed guards.
	return &TransitionError{Event: event, From: before}
}

// Current returns the machine's phase.
func (sm *PhaseStateMachine) Current() Phase {
	return Phase(sm.interpreter.State().Value)
}

// Target returns the phase an event leads to.
func Target(event string) (Phase, bool) {
	p, ok := eventTargets[event]
	return p, ok
}

func isGuarded(event string) bool {
	switch event {
	case EventStartPlan, EventStartImplementation, EventStartValidation:
		return true
	default:
		return false
	}
}
