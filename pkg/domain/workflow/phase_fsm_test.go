package workflow_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
)

func TestPhaseStateMachine(t *testing.T) {
	// 1. Init
	fsm, err := workflow.NewPhaseStateMachine(workflow.PhaseIdle, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if fsm.Current() != workflow.PhaseIdle {
		t.Errorf("Expected idle, got %s", fsm.Current())
	}

	// 2. Transition
	if err := fsm.Transition(workflow.EventStartResearch); err != nil {
		t.Errorf("start_research failed: %v", err)
	}
	if fsm.Current() != workflow.PhaseResearch {
		t.Errorf("Expected research, got %s", fsm.Current())
	}

	// 3. Completion returns to idle
	if err := fsm.Transition(workflow.EventCompleteResearch); err != nil {
		t.Errorf("complete_research failed: %v", err)
	}
	if fsm.Current() != workflow.PhaseIdle {
		t.Errorf("Expected idle, got %s", fsm.Current())
	}

	// 4. Unknown event
	err = fsm.Transition("invalid")
	if err == nil {
		t.Fatal("Expected error on invalid transition")
	}
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPhaseStateMachine_GuardBlocks(t *testing.T) {
	blocked := func(event string) bool { return false }

	for _, event := range []string{
		workflow.EventStartPlan,
		workflow.EventStartImplementation,
		workflow.EventStartValidation,
	} {
		fsm, err := workflow.NewPhaseStateMachine(workflow.PhaseIdle, blocked)
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if err := fsm.Transition(event); err == nil {
			t.Errorf("%s: expected guard to block", event)
		}
		if fsm.Current() != workflow.PhaseIdle {
			t.Errorf("%s: state changed despite failing guard", event)
		}
	}
}

func TestPhaseStateMachine_UnguardedIgnoresGuard(t *testing.T) {
	blocked := func(event string) bool { return false }

	fsm, err := workflow.NewPhaseStateMachine(workflow.PhaseValidate, blocked)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := fsm.Transition(workflow.EventCompleteValidation); err != nil {
		t.Fatalf("complete_validation should not be guarded: %v", err)
	}
	if fsm.Current() != workflow.PhaseIdle {
		t.Errorf("Expected idle, got %s", fsm.Current())
	}
}

func TestPhaseStateMachine_Reentry(t *testing.T) {
	tests := []struct {
		phase workflow.Phase
		event string
	}{
		{workflow.PhaseResearch, workflow.EventStartResearch},
		{workflow.PhasePlan, workflow.EventStartPlan},
		{workflow.PhaseImplement, workflow.EventStartImplementation},
		{workflow.PhaseValidate, workflow.EventStartValidation},
		{workflow.PhaseIdle, workflow.EventReset},
		{workflow.PhaseIdle, workflow.EventCompleteValidation},
	}
	for _, tt := range tests {
		fsm, err := workflow.NewPhaseStateMachine(tt.phase, nil)
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if err := fsm.Transition(tt.event); err != nil {
			t.Errorf("%s from %s: unexpected error %v", tt.event, tt.phase, err)
		}
		if fsm.Current() != tt.phase {
			t.Errorf("%s from %s: moved to %s", tt.event, tt.phase, fsm.Current())
		}
	}

	// Re-entry still honours the guard.
	fsm, _ := workflow.NewPhaseStateMachine(workflow.PhasePlan, func(string) bool { return false })
	if err := fsm.Transition(workflow.EventStartPlan); err == nil {
		t.Error("expected guarded re-entry to fail")
	}
}

func TestPhaseStateMachine_CompletionOnlyFromOwnPhase(t *testing.T) {
	fsm, _ := workflow.NewPhaseStateMachine(workflow.PhaseIdle, nil)
	if err := fsm.Transition(workflow.EventCompleteResearch); err == nil {
		t.Error("complete_research from idle should fail")
	}

	fsm, _ = workflow.NewPhaseStateMachine(workflow.PhaseResearch, nil)
	if err := fsm.Transition(workflow.EventCompletePlan); err == nil {
		t.Error("complete_plan from research should fail")
	}
}

func TestPhaseStateMachine_ResetFromEveryPhase(t *testing.T) {
	for _, p := range workflow.AllPhases() {
		fsm, err := workflow.NewPhaseStateMachine(p, func(string) bool { return false })
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if err := fsm.Transition(workflow.EventReset); err != nil {
			t.Errorf("reset from %s failed: %v", p, err)
		}
		if fsm.Current() != workflow.PhaseIdle {
			t.Errorf("reset from %s landed in %s", p, fsm.Current())
		}
	}
}

func TestNewPhaseStateMachine_InvalidInitial(t *testing.T) {
	if _, err := workflow.NewPhaseStateMachine(workflow.Phase("nope"), nil); err == nil {
		t.Error("expected error for invalid initial phase")
	}
}

func TestTarget(t *testing.T) {
	p, ok := workflow.Target(workflow.EventStartImplementation)
	if !ok || p != workflow.PhaseImplement {
		t.Errorf("unexpected target %s (%v)", p, ok)
	}
	if _, ok := workflow.Target("bogus"); ok {
		t.Error("expected unknown event to have no target")
	}
}
