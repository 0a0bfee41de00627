package toolsets

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oci-logan/logan-mcp/internal/credentials"
	"github.com/oci-logan/logan-mcp/pkg/client"
	"github.com/oci-logan/logan-mcp/pkg/toolsets/health"
)

// toolsAdder is an interface for types that can add tools to an MCP server.
type toolsAdder interface {
	AddTools(mcpServer *mcp.Server)
}

// ToolSets groups every toolset served by the MCP server.
type ToolSets struct {
	toolsAdders []toolsAdder
}

// NewToolSetsWithAllTools creates all toolsets backed by the given credential resolver and OCI client.
func NewToolSetsWithAllTools(resolver *credentials.Resolver, client *client.Client, info health.ServerInfo) *ToolSets {
	return &ToolSets{
		toolsAdders: []toolsAdder{
			health.NewTools(resolver, client, info),
		},
	}
}

// AddTools adds all tools to the MCP server.
func (t *ToolSets) AddTools(mcpServer *mcp.Server) {
	for _, ta := range t.toolsAdders {
		ta.AddTools(mcpServer)
	}
}
