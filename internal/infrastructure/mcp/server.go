package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/prompts"
	"github.com/felixgeelhaar/flowgate/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/mcp-go"
)

// Server exposes the workflow gate as MCP tools and resources.
type Server struct {
	mcpServer  *mcp.Server
	gatekeeper *application.Gatekeeper
	workflow   *application.WorkflowService
	prompts    *prompts.Library
	logger     *slog.Logger
	root       string
}

// Build information reported to MCP clients, set by the CLI at startup.
var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// NewServer builds an MCP server for the task rooted at root. An invalid
// config is logged and replaced by defaults.
func NewServer(root string, opts ...application.WorkflowOption) (*Server, error) {
	services, err := wiring.BuildAppServices(root, opts...)
	if services == nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	if err != nil {
		services.Logger.Warn("using default configuration", "error", err)
	}

	info := mcp.ServerInfo{
		Name:    "flowgate",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Flowgate MCP Server"),
			mcp.WithDescription("Flowgate enforces a research, plan, implement, validate workflow for coding agents."),
			mcp.WithWebsiteURL("https://github.com/felixgeelhaar/flowgate"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Call workflow_status first. Research before planning, get the plan approved before implementing, and always finish with complete_implementation and complete_validation."),
		),
		gatekeeper: services.Gatekeeper,
		workflow:   services.Workflow,
		prompts:    services.Prompts,
		logger:     services.Logger,
		root:       services.Workspace.Root,
	}

	s.registerTools()
	s.registerPromptResources()
	s.registerStateResource()
	s.registerSchemaResource()
	return s, nil
}

type ResearchArgs struct {
	TaskDescription string `json:"task_description" jsonschema:"required,description=Description of what you want to build or change"`
	TicketID        string `json:"ticket_id,omitempty" jsonschema:"description=Optional ticket/issue ID (e.g. ENG-1234)"`
}

type CreatePlanArgs struct {
	TicketFile string `json:"ticket_file,omitempty" jsonschema:"description=Optional path to ticket file or detailed requirements"`
}

type ApprovePlanArgs struct {
	Approved *FlexBool `json:"approved" jsonschema:"required,description=True to approve; false to reject"`
	Feedback string    `json:"feedback,omitempty" jsonschema:"description=Optional feedback or requested changes"`
}

type CompleteValidationArgs struct {
	Passed  *FlexBool `json:"passed" jsonschema:"required,description=True if validation passed all checks; false if issues were found"`
	Summary string    `json:"summary,omitempty" jsonschema:"description=Brief summary of validation results"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool(string(application.ActionWorkflowStatus)).
		Description("Check current workflow status and what phase you are in. Use this first to understand what to do next.").
		Handler(s.handleWorkflowStatus)

	s.mcpServer.Tool(string(application.ActionResearchCodebase)).
		Description("Start the research phase. Analyzes the codebase to understand current implementation. MUST be done before planning.").
		Handler(s.handleResearchCodebase)

	s.mcpServer.Tool(string(application.ActionCreatePlan)).
		Description("Create an implementation plan. Requires research to be complete first. Generates a detailed spec of all changes.").
		Handler(s.handleCreatePlan)

	s.mcpServer.Tool(string(application.ActionApprovePlan)).
		Description("Approve the implementation plan. User must review and explicitly approve before implementation can begin.").
		Handler(s.handleApprovePlan)

	s.mcpServer.Tool(string(application.ActionImplementPlan)).
		Description("Begin implementation of the approved plan. Requires an approved plan to exist.").
		Handler(s.handleImplementPlan)

	s.mcpServer.Tool(string(application.ActionCompleteImplementation)).
		Description("Mark implementation as complete and automatically trigger validation phase. MUST be called after all implementation work is done.").
		Handler(s.handleCompleteImplementation)

	s.mcpServer.Tool(string(application.ActionValidateImplementation)).
		Description("Validate that implementation matches the plan. Runs automated checks and generates validation report.").
		Handler(s.handleValidateImplementation)

	s.mcpServer.Tool(string(application.ActionCompleteValidation)).
		Description("Mark validation as complete. Call this after generating the validation report with pass/fail status.").
		Handler(s.handleCompleteValidation)

	s.mcpServer.Tool(string(application.ActionResetWorkflow)).
		Description("Reset workflow state. Use when starting a completely new task.").
		Handler(s.handleResetWorkflow)
}

// respond runs req through the gatekeeper. Blocked results are returned as
// text so the agent reads the guidance; failures become tool errors.
func (s *Server) respond(ctx context.Context, req application.Request) (string, error) {
	res := s.gatekeeper.Handle(ctx, req)
	if res.IsError {
		return "", mcpErr(res.Text)
	}
	return res.Text, nil
}

func (s *Server) handleWorkflowStatus(ctx context.Context, args struct{}) (string, error) {
	return s.respond(ctx, application.StatusRequest{})
}

func (s *Server) handleResearchCodebase(ctx context.Context, args ResearchArgs) (string, error) {
	desc := strings.TrimSpace(args.TaskDescription)
	if desc == "" {
		return "", mcpErr("Error: task_description is required.")
	}
	return s.respond(ctx, application.ResearchRequest{
		TaskDescription: desc,
		TicketID:        args.TicketID,
	})
}

func (s *Server) handleCreatePlan(ctx context.Context, args CreatePlanArgs) (string, error) {
	return s.respond(ctx, application.CreatePlanRequest{TicketFile: args.TicketFile})
}

func (s *Server) handleApprovePlan(ctx context.Context, args ApprovePlanArgs) (string, error) {
	if args.Approved == nil {
		return "", mcpErr("Error: approved is required.")
	}
	return s.respond(ctx, application.ApprovePlanRequest{
		Approved: bool(*args.Approved),
		Feedback: args.Feedback,
	})
}

func (s *Server) handleImplementPlan(ctx context.Context, args struct{}) (string, error) {
	return s.respond(ctx, application.ImplementRequest{})
}

func (s *Server) handleCompleteImplementation(ctx context.Context, args struct{}) (string, error) {
	return s.respond(ctx, application.CompleteImplementationRequest{})
}

func (s *Server) handleValidateImplementation(ctx context.Context, args struct{}) (string, error) {
	return s.respond(ctx, application.ValidateRequest{})
}

func (s *Server) handleCompleteValidation(ctx context.Context, args CompleteValidationArgs) (string, error) {
	if args.Passed == nil {
		return "", mcpErr("Error: passed is required.")
	}
	return s.respond(ctx, application.CompleteValidationRequest{
		Passed:  bool(*args.Passed),
		Summary: args.Summary,
	})
}

func (s *Server) handleResetWorkflow(ctx context.Context, args struct{}) (string, error) {
	return s.respond(ctx, application.ResetRequest{})
}

// FlexBool accepts both boolean and string ("true"/"false") JSON values.
// MCP clients sometimes send string values for boolean fields.
type FlexBool bool

func (fb *FlexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*fb = FlexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fb = FlexBool(s == "true" || s == "1" || s == "yes")
		return nil
	}
	return fmt.Errorf("expected boolean or string, got %s", string(data))
}

// ServeStdio serves MCP on stdin/stdout until ctx is cancelled or the client
// disconnects. Logs must not go to stdout while this runs.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving MCP on stdio")
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	s.logger.Info("serving MCP over HTTP", "addr", addr)
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	s.logger.Info("serving MCP over WebSocket", "addr", addr)
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}
