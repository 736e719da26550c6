// Package mcp exposes the Flowgate MCP server for embedding in other programs.
package mcp

import (
	infra "github.com/felixgeelhaar/flowgate/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/flowgate/pkg/application"
)

// Server exposes the MCP server implementation from the infrastructure layer.
type Server = infra.Server

// NewServer constructs an MCP server rooted at the provided path.
func NewServer(root string, opts ...application.WorkflowOption) (*Server, error) {
	return infra.NewServer(root, opts...)
}
