package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/oauthex"
	"go.uber.org/zap"
)

// ProtectedResourceMetadataPath is the well-known path of the RFC 9728 discovery document.
const ProtectedResourceMetadataPath = "/.well-known/oauth-protected-resource"

// resourceName is advertised in the discovery document.
const resourceName = "OCI Logging Analytics MCP Server"

// CORS constants for the protected resource metadata endpoint.
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, OPTIONS"
	corsAllowHeaders = "Content-Type"
)

// ProtectedResourceMetadata builds the discovery document for this resource server.
func (c OAuthConfig) ProtectedResourceMetadata() *oauthex.ProtectedResourceMetadata {
	metadata := &oauthex.ProtectedResourceMetadata{
		Resource:               c.ResourceServerURL,
		ScopesSupported:        c.RequiredScopes,
		BearerMethodsSupported: []string{"header"},
		ResourceName:           resourceName,
		ResourceDocumentation:  c.ResourceDocumentation,
	}
	if c.IssuerURL != "" {
		metadata.AuthorizationServers = []string{c.IssuerURL}
	}
	if c.Mode == ModeJWT && c.JwksURL != "" {
		metadata.JWKSURI = c.JwksURL
	}

	return metadata
}

// HandleProtectedResourceMetadata handles the protected resource metadata endpoint
//
// https://modelcontextprotocol.io/specification/draft/basic/authorization#protected-resource-metadata-discovery-requirements
func (c OAuthConfig) HandleProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers
	w.Header().Set("Access-Control-Allow-Origin", corsAllowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
	w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodHead:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c.ProtectedResourceMetadata()); err != nil {
		zap.L().Error("Failed to marshal protected resource metadata", zap.Error(err))
	}
}
