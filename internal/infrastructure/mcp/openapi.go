package mcp

import (
	"encoding/json"

	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	mcplib "github.com/felixgeelhaar/mcp-go"
)

// OpenAPISpec represents a minimal OpenAPI 3.0 document.
type OpenAPISpec struct {
	OpenAPI string              `json:"openapi"`
	Info    OpenAPIInfo         `json:"info"`
	Paths   map[string]PathItem `json:"paths"`
}

// OpenAPIInfo is the info section of an OpenAPI spec.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// PathItem represents a single path with operations.
type PathItem struct {
	Post *Operation `json:"post,omitempty"`
}

// Operation is an OpenAPI operation.
type Operation struct {
	OperationID string              `json:"operationId"`
	Summary     string              `json:"summary,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
	Tags        []string            `json:"tags,omitempty"`
}

// RequestBody is the request body definition.
type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

// MediaType describes a media type with schema.
type MediaType struct {
	Schema any `json:"schema"`
}

// Response is an OpenAPI response.
type Response struct {
	Description string `json:"description"`
}

// OpenAPI returns the OpenAPI 3.0 JSON document for this server.
func (s *Server) OpenAPI() ([]byte, error) {
	return GenerateOpenAPI(s.mcpServer)
}

// GenerateOpenAPI maps every registered tool to POST /tools/{name}. Workflow
// tools are tagged with the phase they belong to.
func GenerateOpenAPI(srv *mcplib.Server) ([]byte, error) {
	tools := srv.Tools()

	paths := make(map[string]PathItem, len(tools))
	for _, t := range tools {
		op := Operation{
			OperationID: t.Name,
			Summary:     t.Description,
			Responses: map[string]Response{
				"200": {Description: "Tool reply. A reply starting with \"" + application.BlockedPrefix + "\" means a prerequisite is missing and nothing changed"},
				"400": {Description: "Invalid or missing arguments"},
				"422": {Description: "The action is not valid in the current phase"},
			},
			Tags: []string{toolTag(t.Name)},
		}

		if props, required := schemaFields(t.InputSchema); props > 0 {
			op.RequestBody = &RequestBody{
				Required: required > 0,
				Content: map[string]MediaType{
					"application/json": {Schema: t.InputSchema},
				},
			}
		}

		paths["/tools/"+t.Name] = PathItem{Post: &op}
	}

	spec := OpenAPISpec{
		OpenAPI: "3.0.3",
		Info: OpenAPIInfo{
			Title:       "Flowgate MCP API",
			Description: "Workflow gate tools: research, plan, implement, validate.",
			Version:     SchemaVersion,
		},
		Paths: paths,
	}

	return json.MarshalIndent(spec, "", "  ")
}

func toolTag(name string) string {
	switch application.Action(name) {
	case application.ActionResearchCodebase:
		return workflow.PhaseResearch.String()
	case application.ActionCreatePlan, application.ActionApprovePlan:
		return workflow.PhasePlan.String()
	case application.ActionImplementPlan, application.ActionCompleteImplementation:
		return workflow.PhaseImplement.String()
	case application.ActionValidateImplementation, application.ActionCompleteValidation:
		return workflow.PhaseValidate.String()
	case application.ActionWorkflowStatus, application.ActionResetWorkflow:
		return "workflow"
	default:
		return "flowgate"
	}
}

// schemaFields counts the declared and required properties of a JSON Schema.
func schemaFields(schema any) (props, required int) {
	m, ok := schema.(map[string]any)
	if !ok {
		return 0, 0
	}
	if pm, ok := m["properties"].(map[string]any); ok {
		props = len(pm)
	}
	switch r := m["required"].(type) {
	case []string:
		required = len(r)
	case []any:
		required = len(r)
	}
	return props, required
}
