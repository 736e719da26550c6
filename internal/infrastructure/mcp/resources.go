package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	mcplib "github.com/felixgeelhaar/mcp-go"
)

// SchemaVersion versions the tool surface. Bump the major version when a tool
// is removed or an argument changes meaning.
const SchemaVersion = "1.0.0"

const (
	schemaURI       = "flowgate://schema"
	stateURI        = "flowgate://state"
	promptURIPrefix = "flowgate://prompts/"
)

type schemaResponse struct {
	SchemaVersion string           `json:"schema_version"`
	ServerVersion string           `json:"server_version"`
	Tools         []string         `json:"tools"`
	Phases        []workflow.Phase `json:"phases"`
	BlockedPrefix string           `json:"blocked_prefix"`
}

func newSchemaResponse() schemaResponse {
	actions := application.AllActions()
	tools := make([]string, 0, len(actions))
	for _, a := range actions {
		tools = append(tools, string(a))
	}
	return schemaResponse{
		SchemaVersion: SchemaVersion,
		ServerVersion: Version,
		Tools:         tools,
		Phases:        workflow.AllPhases(),
		BlockedPrefix: application.BlockedPrefix,
	}
}

func jsonContent(uri string, v any) (*mcplib.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcplib.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("Tool schema version, tool names and workflow phases").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return jsonContent(schemaURI, newSchemaResponse())
		})
}

// registerPromptResources exposes every phase prompt so clients can show the
// instructions without advancing the workflow.
func (s *Server) registerPromptResources() {
	for _, name := range s.prompts.Names() {
		uri := promptURIPrefix + name
		promptName := name
		s.mcpServer.Resource(uri).
			Name(uri).
			Description(fmt.Sprintf("Instructions for the %s phase", promptName)).
			MimeType("text/markdown").
			Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
				text, err := s.prompts.Prompt(promptName)
				if err != nil {
					return nil, err
				}
				return &mcplib.ResourceContent{
					URI:      uri,
					MimeType: "text/markdown",
					Text:     text,
				}, nil
			})
	}
}

func (s *Server) registerStateResource() {
	s.mcpServer.Resource(stateURI).
		Name(stateURI).
		Description("Current workflow state record").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return jsonContent(stateURI, s.workflow.State())
		})
}
