package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action names a gatekeeper operation. They double as MCP tool names.
type Action string

const (
	ActionWorkflowStatus         Action = "workflow_status"
	ActionResearchCodebase       Action = "research_codebase"
	ActionCreatePlan             Action = "create_plan"
	ActionApprovePlan            Action = "approve_plan"
	ActionImplementPlan          Action = "implement_plan"
	ActionCompleteImplementation Action = "complete_implementation"
	ActionValidateImplementation Action = "validate_implementation"
	ActionCompleteValidation     Action = "complete_validation"
	ActionResetWorkflow          Action = "reset_workflow"
)

// AllActions returns every action in workflow order.
func AllActions() []Action {
	return []Action{
		ActionWorkflowStatus,
		ActionResearchCodebase,
		ActionCreatePlan,
		ActionApprovePlan,
		ActionImplementPlan,
		ActionCompleteImplementation,
		ActionValidateImplementation,
		ActionCompleteValidation,
		ActionResetWorkflow,
	}
}

// ErrUnknownAction is returned for names outside AllActions.
var ErrUnknownAction = errors.New("unknown action")

// ErrMissingArgument is returned when a required argument is absent.
var ErrMissingArgument = errors.New("missing required argument")

// Request is one of the gatekeeper's closed set of operations.
type Request interface {
	Action() Action
	isRequest()
}

type StatusRequest struct{}

type ResearchRequest struct {
	TaskDescription string `json:"task_description"`
	TicketID        string `json:"ticket_id,omitempty"`
}

type CreatePlanRequest struct {
	TicketFile string `json:"ticket_file,omitempty"`
}

type ApprovePlanRequest struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

type ImplementRequest struct{}

type CompleteImplementationRequest struct{}

type ValidateRequest struct{}

type CompleteValidationRequest struct {
	Passed  bool   `json:"passed"`
	Summary string `json:"summary,omitempty"`
}

type ResetRequest struct{}

func (StatusRequest) Action() Action                 { return ActionWorkflowStatus }
func (ResearchRequest) Action() Action               { return ActionResearchCodebase }
func (CreatePlanRequest) Action() Action             { return ActionCreatePlan }
func (ApprovePlanRequest) Action() Action            { return ActionApprovePlan }
func (ImplementRequest) Action() Action              { return ActionImplementPlan }
func (CompleteImplementationRequest) Action() Action { return ActionCompleteImplementation }
func (ValidateRequest) Action() Action               { return ActionValidateImplementation }
func (CompleteValidationRequest) Action() Action     { return ActionCompleteValidation }
func (ResetRequest) Action() Action                  { return ActionResetWorkflow }

func (StatusRequest) isRequest()                 {}
func (ResearchRequest) isRequest()               {}
func (CreatePlanRequest) isRequest()             {}
func (ApprovePlanRequest) isRequest()            {}
func (ImplementRequest) isRequest()              {}
func (CompleteImplementationRequest) isRequest() {}
func (ValidateRequest) isRequest()               {}
func (CompleteValidationRequest) isRequest()     {}
func (ResetRequest) isRequest()                  {}

// ParseRequest decodes JSON arguments for the named action. Empty args are
// treated as an empty object.
func ParseRequest(name string, args json.RawMessage) (Request, error) {
	if len(strings.TrimSpace(string(args))) == 0 {
		args = json.RawMessage("{}")
	}

	switch Action(name) {
	case ActionWorkflowStatus:
		return StatusRequest{}, nil
	case ActionResearchCodebase:
		var r ResearchRequest
		if err := decodeArgs(name, args, &r, "task_description"); err != nil {
			return nil, err
		}
		if strings.TrimSpace(r.TaskDescription) == "" {
			return nil, fmt.Errorf("%s: %w: task_description", name, ErrMissingArgument)
		}
		return r, nil
	case ActionCreatePlan:
		var r CreatePlanRequest
		if err := decodeArgs(name, args, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ActionApprovePlan:
		var r ApprovePlanRequest
		if err := decodeArgs(name, args, &r, "approved"); err != nil {
			return nil, err
		}
		return r, nil
	case ActionImplementPlan:
		return ImplementRequest{}, nil
	case ActionCompleteImplementation:
		return CompleteImplementationRequest{}, nil
	case ActionValidateImplementation:
		return ValidateRequest{}, nil
	case ActionCompleteValidation:
		var r CompleteValidationRequest
		if err := decodeArgs(name, args, &r, "passed"); err != nil {
			return nil, err
		}
		return r, nil
	case ActionResetWorkflow:
		return ResetRequest{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
}

func decodeArgs(name string, args json.RawMessage, v interface{}, required ...string) error {
	var present map[string]json.RawMessage
	if err := json.Unmarshal(args, &present); err != nil {
		return fmt.Errorf("%s: invalid arguments: %w", name, err)
	}
	for _, field := range required {
		raw, ok := present[field]
		if !ok || string(raw) == "null" {
			return fmt.Errorf("%s: %w: %s", name, ErrMissingArgument, field)
		}
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%s: invalid arguments: %w", name, err)
	}
	return nil
}
