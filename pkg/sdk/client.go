package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/mcp-go/client"
)

const blockedPrefix = "❌ BLOCKED"

// Client is a typed Go client for the Flowgate MCP server.
type Client struct {
	mcp      *client.Client
	retryCfg retry.Config
	strict   bool
}

// NewClient creates a new SDK client wrapping the given MCP transport.
func NewClient(transport client.Transport, opts ...Option) *Client {
	cfg := newClientConfig(opts)
	return &Client{
		mcp:    client.New(transport, client.WithTimeout(cfg.callTimeout)),
		strict: cfg.strict,
		retryCfg: retry.Config{
			MaxAttempts:   cfg.queryAttempts,
			InitialDelay:  cfg.queryBackoff,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Initialize performs the MCP initialize handshake.
func (c *Client) Initialize(ctx context.Context) (*client.ServerInfo, error) {
	return c.mcp.Initialize(ctx)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// query invokes a read-only tool with retry.
func (c *Client) query(ctx context.Context, tool string, args map[string]any) (*client.ToolResult, error) {
	r := retry.New[*client.ToolResult](c.retryCfg)
	result, err := r.Do(ctx, func(ctx context.Context) (*client.ToolResult, error) {
		return c.mcp.CallTool(ctx, tool, args)
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	return checkResult(tool, result)
}

// command invokes a tool that changes workflow state. It is never retried:
// a repeated research or approval would act twice.
func (c *Client) command(ctx context.Context, tool string, args map[string]any) (*Reply, error) {
	result, err := c.mcp.CallTool(ctx, tool, args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	if result, err = checkResult(tool, result); err != nil {
		return nil, err
	}
	text, err := textResult(result)
	if err != nil {
		return nil, err
	}
	reply := &Reply{Text: text, Blocked: IsBlocked(text)}
	if reply.Blocked && c.strict {
		return nil, &BlockedError{Tool: tool, Guidance: text}
	}
	return reply, nil
}

func checkResult(tool string, result *client.ToolResult) (*client.ToolResult, error) {
	if result.IsError {
		msg := ""
		if len(result.Content) > 0 {
			msg = result.Content[0].Text
		}
		return nil, &ToolError{Tool: tool, Message: msg}
	}
	return result, nil
}

// unmarshalText extracts Content[0].Text from a tool result and unmarshals it as JSON.
func unmarshalText[T any](result *client.ToolResult) (*T, error) {
	text, err := textResult(result)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &v, nil
}

// textResult extracts Content[0].Text from a tool result.
func textResult(result *client.ToolResult) (string, error) {
	if len(result.Content) == 0 {
		return "", ErrNoContent
	}
	return result.Content[0].Text, nil
}

// IsBlocked reports whether a tool reply is a prerequisite refusal.
func IsBlocked(text string) bool {
	return strings.HasPrefix(text, blockedPrefix)
}

// --- Schema ---

// GetSchema reads the flowgate://schema resource from the server.
func (c *Client) GetSchema(ctx context.Context) (*SchemaInfo, error) {
	rc, err := c.mcp.ReadResource(ctx, "flowgate://schema")
	if err != nil {
		return nil, fmt.Errorf("read schema resource: %w", err)
	}
	var info SchemaInfo
	if err := json.Unmarshal([]byte(rc.Text), &info); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &info, nil
}

// Compatible checks if the server schema is compatible with this SDK version.
// Returns nil if compatible, error with details if not.
func (c *Client) Compatible(ctx context.Context) error {
	info, err := c.GetSchema(ctx)
	if err != nil {
		return fmt.Errorf("check compatibility: %w", err)
	}
	serverMajor := majorVersion(info.SchemaVersion)
	if serverMajor != SchemaMajor {
		return fmt.Errorf("incompatible schema: server=%s (major %s), sdk supports major %s",
			info.SchemaVersion, serverMajor, SchemaMajor)
	}
	return nil
}

func majorVersion(v string) string {
	major, _, _ := strings.Cut(strings.TrimPrefix(v, "v"), ".")
	return major
}

// --- Resources ---

// State reads the persisted workflow record.
func (c *Client) State(ctx context.Context) (*State, error) {
	rc, err := c.mcp.ReadResource(ctx, "flowgate://state")
	if err != nil {
		return nil, fmt.Errorf("read state resource: %w", err)
	}
	var st State
	if err := json.Unmarshal([]byte(rc.Text), &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &st, nil
}

// Prompt returns the instructions for a phase (research, plan, implement, validate).
func (c *Client) Prompt(ctx context.Context, name string) (string, error) {
	rc, err := c.mcp.ReadResource(ctx, "flowgate://prompts/"+name)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", name, err)
	}
	return rc.Text, nil
}

// --- Workflow ---

// Status returns the current workflow summary.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	res, err := c.query(ctx, "workflow_status", nil)
	if err != nil {
		return nil, err
	}
	return unmarshalText[Status](res)
}

// ResearchRequest provides typed parameters for Research.
type ResearchRequest struct {
	TaskDescription string
	TicketID        string
}

// Research starts the research phase.
func (c *Client) Research(ctx context.Context, req ResearchRequest) (*Reply, error) {
	args := map[string]any{"task_description": req.TaskDescription}
	if req.TicketID != "" {
		args["ticket_id"] = req.TicketID
	}
	return c.command(ctx, "research_codebase", args)
}

// CreatePlan starts the planning phase. ticketFile may be empty.
func (c *Client) CreatePlan(ctx context.Context, ticketFile string) (*Reply, error) {
	args := map[string]any{}
	if ticketFile != "" {
		args["ticket_file"] = ticketFile
	}
	return c.command(ctx, "create_plan", args)
}

// ApprovePlan approves the plan.
func (c *Client) ApprovePlan(ctx context.Context, feedback string) (*Reply, error) {
	return c.review(ctx, true, feedback)
}

// RejectPlan withdraws approval so the plan can be revised.
func (c *Client) RejectPlan(ctx context.Context, feedback string) (*Reply, error) {
	return c.review(ctx, false, feedback)
}

func (c *Client) review(ctx context.Context, approved bool, feedback string) (*Reply, error) {
	args := map[string]any{"approved": approved}
	if feedback != "" {
		args["feedback"] = feedback
	}
	return c.command(ctx, "approve_plan", args)
}

// Implement starts implementation of the approved plan.
func (c *Client) Implement(ctx context.Context) (*Reply, error) {
	return c.command(ctx, "implement_plan", nil)
}

// CompleteImplementation finishes implementation and moves to validation.
func (c *Client) CompleteImplementation(ctx context.Context) (*Reply, error) {
	return c.command(ctx, "complete_implementation", nil)
}

// Validate starts the validation phase.
func (c *Client) Validate(ctx context.Context) (*Reply, error) {
	return c.command(ctx, "validate_implementation", nil)
}

// CompleteValidation records the validation outcome.
func (c *Client) CompleteValidation(ctx context.Context, passed bool, summary string) (*Reply, error) {
	args := map[string]any{"passed": passed}
	if summary != "" {
		args["summary"] = summary
	}
	return c.command(ctx, "complete_validation", args)
}

// Reset clears the workflow for a new task.
func (c *Client) Reset(ctx context.Context) (*Reply, error) {
	return c.command(ctx, "reset_workflow", nil)
}
