package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
)

// Prompt names understood by a PromptSource.
const (
	PromptResearch  = "research"
	PromptPlan      = "plan"
	PromptImplement = "implement"
	PromptValidate  = "validate"
)

// PromptSource supplies the instruction text handed to the agent for a phase.
type PromptSource interface {
	Prompt(name string) (string, error)
}

// Gatekeeper errors. They are rendered to the caller as "Error: <message>".
var (
	ErrNoPlanToApprove     = errors.New("no plan exists to approve")
	ErrNotImplementing     = errors.New("not in implementation phase, call implement_plan first")
	ErrNoValidationRunning = errors.New("no validation in progress, start validation first with validate_implementation")
	ErrResearchWhileActive = errors.New("cannot start research while a phase is active")
)

// BlockedPrefix starts the text of every blocked result.
const BlockedPrefix = "❌ BLOCKED"

// defaultPlanSlug names the plan when no task description was recorded.
const defaultPlanSlug = "task"

// PhaseBusyError reports that an action needs the workflow to be idle.
type PhaseBusyError struct {
	Action string
	Phase  workflow.Phase
}

func (e *PhaseBusyError) Error() string {
	return fmt.Sprintf("cannot start %s while in %s phase", e.Action, e.Phase)
}

func (e *PhaseBusyError) Is(target error) bool {
	return target == ErrResearchWhileActive
}

// Result is the outcome of a gatekeeper action. Blocked results are
// instructions for the caller, not failures.
type Result struct {
	Text    string
	IsError bool
	Blocked bool
	// Err is the failure behind an error result.
	Err error
}

// Gatekeeper turns requests into workflow transitions and the text the
// agent should act on.
type Gatekeeper struct {
	workflow *WorkflowService
	prompts  PromptSource
	logger   *slog.Logger
}

// NewGatekeeper creates a gatekeeper over wf.
func NewGatekeeper(wf *WorkflowService, prompts PromptSource, logger *slog.Logger) *Gatekeeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gatekeeper{workflow: wf, prompts: prompts, logger: logger}
}

// Workflow returns the underlying workflow service.
func (g *Gatekeeper) Workflow() *WorkflowService {
	return g.workflow
}

// Handle executes req. Failures are folded into the result.
func (g *Gatekeeper) Handle(ctx context.Context, req Request) Result {
	res, err := g.dispatch(ctx, req)
	if err != nil {
		g.logger.Warn("action failed", "action", actionName(req), "error", err)
		return Result{Text: "Error: " + err.Error(), IsError: true, Err: err}
	}
	if res.Blocked {
		g.logger.Info("action blocked", "action", actionName(req), "phase", g.workflow.CurrentPhase())
	}
	return res
}

// Call parses and executes the named action.
func (g *Gatekeeper) Call(ctx context.Context, name string, args json.RawMessage) Result {
	req, err := ParseRequest(name, args)
	if err != nil {
		return Result{Text: "Error: " + err.Error(), IsError: true, Err: err}
	}
	return g.Handle(ctx, req)
}

func actionName(req Request) string {
	if req == nil {
		return ""
	}
	return string(req.Action())
}

func (g *Gatekeeper) dispatch(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	switch r := req.(type) {
	case StatusRequest:
		return g.status()
	case ResearchRequest:
		return g.research(r)
	case CreatePlanRequest:
		return g.createPlan(r)
	case ApprovePlanRequest:
		return g.approvePlan(r)
	case ImplementRequest:
		return g.implement()
	case CompleteImplementationRequest:
		return g.completeImplementation()
	case ValidateRequest:
		return g.validate()
	case CompleteValidationRequest:
		return g.completeValidation(r)
	case ResetRequest:
		return g.reset()
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownAction, req)
	}
}

func (g *Gatekeeper) status() (Result, error) {
	data, err := json.MarshalIndent(g.workflow.Status(), "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("encode status: %w", err)
	}
	return Result{Text: string(data)}, nil
}

func (g *Gatekeeper) research(r ResearchRequest) (Result, error) {
	if err := g.workflow.SyncToFileSystem(); err != nil {
		return Result{}, err
	}
	if phase := g.workflow.CurrentPhase(); !phase.IsIdle() {
		return Result{}, &PhaseBusyError{Action: "research", Phase: phase}
	}

	researchPath, err := g.workflow.PlannedArtifactPath(workflow.ArtifactResearch, r.TicketID, r.TaskDescription)
	if err != nil {
		return Result{}, err
	}
	if err := g.workflow.StartResearch(r.TaskDescription, r.TicketID, researchPath); err != nil {
		return Result{}, err
	}

	prompt, err := g.prompts.Prompt(PromptResearch)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Starting research phase for: %q\n\n", r.TaskDescription)
	b.WriteString(prompt)
	b.WriteString("\n\n**Your task**: Research the codebase to understand the current implementation related to this task.\n\n")
	fmt.Fprintf(&b, "**Output**: Create research document at: `%s`\n\n", researchPath)
	b.WriteString("After completing research, the document path will be saved and you can proceed to planning.")
	return Result{Text: b.String()}, nil
}

func (g *Gatekeeper) createPlan(r CreatePlanRequest) (Result, error) {
	if err := g.workflow.SyncToFileSystem(); err != nil {
		return Result{}, err
	}
	if !g.workflow.HasResearch() {
		return g.blocked("Cannot create plan without research.",
			"Please run 'research_codebase' first to understand the codebase before planning."), nil
	}

	st := g.workflow.State()
	description := st.Metadata.TaskDescription
	if description == "" {
		description = defaultPlanSlug
	}
	planPath, err := g.workflow.PlannedArtifactPath(workflow.ArtifactPlan, st.TaskID, description)
	if err != nil {
		return Result{}, err
	}
	if err := g.workflow.StartPlanning(planPath); err != nil {
		return Result{}, err
	}

	prompt, err := g.prompts.Prompt(PromptPlan)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	b.WriteString("📋 Starting planning phase\n\n")
	fmt.Fprintf(&b, "Research completed at: `%s`\n\n", st.ResearchPath)
	b.WriteString(prompt)
	b.WriteString("\n\n**Your task**: Create a detailed implementation plan based on the research findings.\n\n")
	if r.TicketFile != "" {
		fmt.Fprintf(&b, "**Ticket file**: %s\n\n", r.TicketFile)
	}
	fmt.Fprintf(&b, "**Output**: Create plan document at: `%s`\n\n", planPath)
	b.WriteString("The plan must include:\n")
	b.WriteString("- Phased implementation approach\n")
	b.WriteString("- Specific file changes with code snippets\n")
	b.WriteString("- Both automated AND manual success criteria\n")
	b.WriteString("- What we're NOT doing (scope control)\n\n")
	b.WriteString("After creating the plan, wait for human approval before proceeding.")
	return Result{Text: b.String()}, nil
}

func (g *Gatekeeper) approvePlan(r ApprovePlanRequest) (Result, error) {
	if err := g.workflow.SyncToFileSystem(); err != nil {
		return Result{}, err
	}
	if !g.workflow.HasPlan() {
		return Result{}, ErrNoPlanToApprove
	}

	var b strings.Builder
	if r.Approved {
		if err := g.workflow.ApprovePlan(); err != nil {
			return Result{}, err
		}
		b.WriteString("✅ Plan approved!\n\n")
		if r.Feedback != "" {
			fmt.Fprintf(&b, "Feedback: %s\n\n", r.Feedback)
		}
		b.WriteString("You can now proceed with implementation using 'implement_plan'.")
		return Result{Text: b.String()}, nil
	}

	if err := g.workflow.RejectPlan(); err != nil {
		return Result{}, err
	}
	feedback := r.Feedback
	if feedback == "" {
		feedback = "No feedback provided"
	}
	b.WriteString("❌ Plan rejected.\n\n")
	fmt.Fprintf(&b, "Feedback: %s\n\n", feedback)
	b.WriteString("Please revise the plan and resubmit for approval.")
	return Result{Text: b.String()}, nil
}

func (g *Gatekeeper) implement() (Result, error) {
	if err := g.workflow.SyncToFileSystem(); err != nil {
		return Result{}, err
	}
	if !g.workflow.CanImplement() {
		return g.blocked("Cannot implement without approved plan.",
			"Workflow required:\n"+
				"1. Research codebase\n"+
				"2. Create implementation plan\n"+
				"3. Get plan approved\n"+
				"4. Implementation (blocked)\n\n"+
				"Please get the plan approved first."), nil
	}

	if err := g.workflow.StartImplementation(); err != nil {
		return Result{}, err
	}
	prompt, err := g.prompts.Prompt(PromptImplement)
	if err != nil {
		return Result{}, err
	}

	st := g.workflow.State()
	var b strings.Builder
	b.WriteString("🚀 Implementation phase started\n\n")
	writeArtifactPaths(&b, st)
	b.WriteString(prompt)
	b.WriteString("\n\n**Your task**: Implement the approved plan phase by phase.\n\n")
	b.WriteString("**Critical rules**:\n")
	b.WriteString("- Keep context utilization under 40%\n")
	b.WriteString("- Update the plan document as phases complete\n")
	b.WriteString("- Reference the plan in all code changes\n")
	b.WriteString("- Stop for human review between phases if manual validation is required\n\n")
	b.WriteString("⚠️ **MANDATORY COMPLETION STEP**: When you have finished ALL implementation work, ")
	b.WriteString("you MUST call the 'complete_implementation' tool. It marks the implementation complete ")
	b.WriteString("and moves the workflow into the VALIDATION phase.\n\n")
	b.WriteString("**DO NOT say \"implementation complete\" without calling complete_implementation first.**")
	return Result{Text: b.String()}, nil
}

func (g *Gatekeeper) completeImplementation() (Result, error) {
	if err := g.workflow.SyncToFileSystem(); err != nil {
		return Result{}, err
	}
	if g.workflow.CurrentPhase() != workflow.PhaseImplement {
		return Result{}, ErrNotImplementing
	}

	if err := g.workflow.StartValidation(); err != nil {
		return Result{}, err
	}
	prompt, err := g.prompts.Prompt(PromptValidate)
	if err != nil {
		return Result{}, err
	}

	st := g.workflow.State()
	var b strings.Builder
	b.WriteString("✅ Implementation marked as complete!\n\n")
	b.WriteString("⚠️ **VALIDATION IS NOW REQUIRED**: the workflow stays in the VALIDATION phase ")
	b.WriteString("until you call 'complete_validation'.\n\n")
	writeArtifactPaths(&b, st)
	b.WriteString(prompt)
	b.WriteString("\n\n**Your mandatory tasks**:\n")
	b.WriteString("1. Read the implementation plan completely\n")
	b.WriteString("2. Verify each phase was implemented as specified\n")
	b.WriteString("3. Run ALL automated verification commands from the plan\n")
	b.WriteString("4. Check for deviations or issues\n")
	b.WriteString("5. Generate a validation report with an overall PASS/FAIL status\n")
	b.WriteString("6. Call 'complete_validation' with the results")
	return Result{Text: b.String()}, nil
}

func (g *Gatekeeper) validate() (Result, error) {
	if err := g.workflow.SyncToFileSystem(); err != nil {
		return Result{}, err
	}
	if !g.workflow.CanValidate() {
		return g.blocked("Cannot validate without implementation.",
			"Complete the implementation first, then run validation."), nil
	}

	if err := g.workflow.StartValidation(); err != nil {
		return Result{}, err
	}
	prompt, err := g.prompts.Prompt(PromptValidate)
	if err != nil {
		return Result{}, err
	}

	st := g.workflow.State()
	var b strings.Builder
	b.WriteString("✅ Validation phase started\n\n")
	writeArtifactPaths(&b, st)
	b.WriteString(prompt)
	b.WriteString("\n\n**Your task**: Validate that implementation matches the plan exactly.\n\n")
	b.WriteString("**Checks to perform**:\n")
	b.WriteString("1. Run all automated success criteria from plan\n")
	b.WriteString("2. Compare git diff to planned changes\n")
	b.WriteString("3. Identify any deviations\n")
	b.WriteString("4. Generate validation report\n\n")
	b.WriteString("After validation, report pass/fail status with detailed findings.")
	return Result{Text: b.String()}, nil
}

func (g *Gatekeeper) completeValidation(r CompleteValidationRequest) (Result, error) {
	if g.workflow.CurrentPhase() != workflow.PhaseValidate {
		return Result{}, ErrNoValidationRunning
	}
	if err := g.workflow.CompleteValidation(r.Passed); err != nil {
		return Result{}, err
	}

	var b strings.Builder
	if r.Passed {
		b.WriteString("🎉 Validation Complete: PASSED ✅\n\n")
	} else {
		b.WriteString("⚠️ Validation Complete: FAILED ❌\n\n")
	}
	if r.Summary != "" {
		fmt.Fprintf(&b, "**Summary**: %s\n\n", r.Summary)
	}
	b.WriteString("**Status**: Validation has been recorded in workflow state.\n\n")
	if r.Passed {
		b.WriteString("Implementation meets plan requirements. Ready for deployment or next task!\n\n")
	} else {
		b.WriteString("Issues found. Review validation report and address problems before proceeding.\n\n")
	}
	b.WriteString("You can now start a new task or run 'reset_workflow' to clear all state.")
	return Result{Text: b.String()}, nil
}

func (g *Gatekeeper) reset() (Result, error) {
	if err := g.workflow.Reset(); err != nil {
		return Result{}, err
	}
	return Result{Text: "🔄 Workflow reset. Ready to start fresh with research → plan → implement → validate."}, nil
}

func (g *Gatekeeper) blocked(reason, guidance string) Result {
	return Result{
		Text:    fmt.Sprintf("%s: %s\n\n%s\n\n%s", BlockedPrefix, reason, g.workflow.StatusMessage(), guidance),
		Blocked: true,
	}
}

func writeArtifactPaths(b *strings.Builder, st *workflow.State) {
	fmt.Fprintf(b, "Plan: `%s`\n", st.PlanPath)
	fmt.Fprintf(b, "Research: `%s`\n\n", st.ResearchPath)
}
