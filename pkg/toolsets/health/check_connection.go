package health

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oci-logan/logan-mcp/internal/middleware"
	"github.com/oci-logan/logan-mcp/pkg/response"
	"github.com/oci-logan/logan-mcp/pkg/utils"
	"go.uber.org/zap"
)

const connectionCompartmentLen = 20

type checkConnectionParams struct{}

type connectionResult struct {
	Success            bool   `json:"success"`
	Region             string `json:"region,omitempty"`
	Namespace          string `json:"namespace,omitempty"`
	CompartmentID      string `json:"compartment_id,omitempty"`
	CredentialProvider string `json:"credential_provider,omitempty"`
	Error              string `json:"error,omitempty"`
}

// checkConnection proves the server credentials work by fetching the tenancy namespace.
func (t *Tools) checkConnection(ctx context.Context, toolReq *mcp.CallToolRequest, _ checkConnectionParams) (*mcp.CallToolResult, any, error) {
	extras := map[string]string{}
	if info, ok := middleware.TokenInfoFromContext(ctx); ok {
		extras["subject"] = info.Sub
	}
	log := utils.NewChildLogger(toolReq, extras)
	log.Debug("check_connection called")

	result := connectionResult{
		Region:        orUnset(t.info.Region),
		CompartmentID: truncate(t.info.Compartment, connectionCompartmentLen),
	}

	provider, err := t.resolver.Resolve(ctx)
	if err != nil {
		log.Error("failed to resolve credential provider", zap.Error(err))
		result.Error = err.Error()
		return t.result(log, result)
	}
	result.CredentialProvider = string(provider.Kind())

	namespace, err := t.client.GetNamespace(ctx, provider)
	if err != nil {
		log.Error("check_connection failed", zap.Error(err))
		result.Error = err.Error()
		return t.result(log, result)
	}

	result.Success = true
	result.Namespace = namespace

	return t.result(log, result)
}

func (t *Tools) result(log *zap.Logger, result connectionResult) (*mcp.CallToolResult, any, error) {
	toolResult, err := response.NewToolResult(result)
	if err != nil {
		log.Error("failed to create mcp response", zap.Error(err))
		return nil, nil, err
	}
	toolResult.IsError = !result.Success

	return toolResult, nil, nil
}
