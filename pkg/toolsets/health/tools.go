package health

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oci-logan/logan-mcp/internal/credentials"
)

const (
	toolsSet    = "health"
	toolsSetAnn = "toolset"

	serverName = "oci_logan_mcp"
	unset      = "unset"
)

type credentialResolver interface {
	Resolve(ctx context.Context) (credentials.Provider, error)
}

type namespaceClient interface {
	GetNamespace(ctx context.Context, provider credentials.Provider) (string, error)
}

// ServerInfo is the static server description reported by the health tool.
type ServerInfo struct {
	Version      string
	Transport    string
	OAuthEnabled bool
	OAuthMode    string
	Region       string
	Compartment  string
}

// Tools contains the health and connectivity tools.
type Tools struct {
	resolver credentialResolver
	client   namespaceClient
	info     ServerInfo
	now      func() time.Time
}

// NewTools creates and returns a new Tools instance.
func NewTools(resolver credentialResolver, client namespaceClient, info ServerInfo) *Tools {
	return &Tools{
		resolver: resolver,
		client:   client,
		info:     info,
		now:      time.Now,
	}
}

// AddTools registers the health tools with the provided MCP server.
func (t *Tools) AddTools(mcpServer *mcp.Server) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "health",
		Meta: map[string]any{
			toolsSetAnn: toolsSet,
		},
		Description: `Health and status check for the OCI Logging Analytics MCP server.
		Parameters:
		detail (boolean, optional): Return extended detail such as the timestamp, the Go runtime and the authenticated caller.

		Returns:
		The server name, version, transport, OAuth status, region, compartment and credential provider kind.`},
		t.health,
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "check_connection",
		Meta: map[string]any{
			toolsSetAnn: toolsSet,
		},
		Description: `Tests the connection to Oracle Cloud Infrastructure with the server credentials.

		Returns:
		Whether OCI accepted the credentials, with the region, the tenancy Object Storage namespace and the credential provider kind.`},
		t.checkConnection,
	)
}

// truncate shortens long OCIDs for display.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}

func orUnset(s string) string {
	if s == "" {
		return unset
	}

	return s
}
