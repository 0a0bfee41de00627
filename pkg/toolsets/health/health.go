package health

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oci-logan/logan-mcp/internal/middleware"
	"github.com/oci-logan/logan-mcp/pkg/response"
	"github.com/oci-logan/logan-mcp/pkg/utils"
	"go.uber.org/zap"
)

const healthCompartmentLen = 30

type healthParams struct {
	Detail bool `json:"detail,omitempty" jsonschema:"return extended detail"`
}

type healthResult struct {
	Status             string `json:"status"`
	Server             string `json:"server"`
	Version            string `json:"version"`
	Transport          string `json:"transport"`
	OAuthEnabled       bool   `json:"oauth_enabled"`
	Region             string `json:"region"`
	Compartment        string `json:"compartment"`
	CredentialProvider string `json:"credential_provider"`

	Timestamp string  `json:"timestamp,omitempty"`
	GoVersion string  `json:"go_version,omitempty"`
	OAuthMode string  `json:"oauth_mode,omitempty"`
	Caller    *caller `json:"caller,omitempty"`
}

// caller describes the authenticated principal. It never carries the token itself.
type caller struct {
	Subject  string `json:"subject,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Username string `json:"username,omitempty"`
	Scopes   string `json:"scopes,omitempty"`
}

// health reports server status.
func (t *Tools) health(ctx context.Context, toolReq *mcp.CallToolRequest, params healthParams) (*mcp.CallToolResult, any, error) {
	log := utils.NewChildLogger(toolReq, nil)
	log.Debug("health called")

	result := healthResult{
		Status:             "ok",
		Server:             serverName,
		Version:            t.info.Version,
		Transport:          t.info.Transport,
		OAuthEnabled:       t.info.OAuthEnabled,
		Region:             orUnset(t.info.Region),
		Compartment:        truncate(orUnset(t.info.Compartment), healthCompartmentLen),
		CredentialProvider: "unavailable",
	}

	if provider, err := t.resolver.Resolve(ctx); err == nil {
		result.CredentialProvider = string(provider.Kind())
	} else {
		log.Warn("credential provider unavailable", zap.Error(err))
	}

	if params.Detail {
		result.Timestamp = t.now().UTC().Format(time.RFC3339)
		result.GoVersion = runtime.Version()
		result.OAuthMode = "disabled"
		if t.info.OAuthEnabled {
			result.OAuthMode = t.info.OAuthMode
		}
		if info, ok := middleware.TokenInfoFromContext(ctx); ok {
			result.Caller = &caller{
				Subject:  info.Sub,
				ClientID: info.ClientID,
				Username: info.Username,
				Scopes:   strings.Join(info.Scopes(), " "),
			}
		}
	}

	toolResult, err := response.NewToolResult(result)
	if err != nil {
		log.Error("failed to create mcp response", zap.Error(err))
		return nil, nil, err
	}

	return toolResult, nil, nil
}
