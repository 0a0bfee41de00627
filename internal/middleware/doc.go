// Package middleware provides HTTP middleware components for the OCI Logging Analytics MCP server.
//
// # OAuth 2.1 Authorization
//
// The primary component is an OAuth 2.1 resource-server middleware that validates bearer
// tokens according to the Model Context Protocol specification:
// https://modelcontextprotocol.io/specification/draft/basic/authorization
//
// Tokens are verified by one of three verifiers:
//   - Introspector: RFC 7662 token introspection with client credentials (default)
//   - JWTVerifier: signature verification using a JWKS (JSON Web Key Set) or a PEM public key
//   - StaticVerifier: a fixed set of tokens from configuration, for development
//
// Each request is evaluated in order, stopping at the first failure:
//   - Disabled configuration passes every request through
//   - Missing or malformed Authorization header: 401 invalid_request
//   - Token cache lookup, then verification on a miss: 401 invalid_token on failure
//   - Expired token (exp in the past), even when cached: 401 invalid_token
//   - Required scopes not all granted: 403 insufficient_scope
//   - Audience not matching this resource server: 403 invalid_token
//
// An introspection endpoint that is down, slow or answering garbage is reported to the
// client exactly like an invalid token.
//
// # Usage
//
//	oauth, err := middleware.NewOAuth(ctx, middleware.OAuthConfig{
//	    Enabled:           true,
//	    IssuerURL:         "https://auth.example.com",
//	    IntrospectionURL:  "https://auth.example.com/oauth2/introspect",
//	    ClientID:          "logan-mcp",
//	    ClientSecret:      secret,
//	    RequiredScopes:    []string{"mcp:tools"},
//	    ResourceServerURL: "https://logan.example.com",
//	    TokenCacheEnabled: true,
//	    TokenCacheTTL:     5 * time.Minute,
//	}, http.DefaultClient)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.Handle("/mcp", oauth.Middleware(yourHandler))
//
// # Token Context
//
// After successful authorization, the middleware injects the raw token and its verified
// claims into the request context:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    info, _ := middleware.TokenInfoFromContext(r.Context())
//	    token := middleware.Token(r.Context())
//	}
//
// # Protected Resource Metadata
//
// The package also provides a metadata endpoint handler that exposes OAuth 2.0
// Protected Resource Metadata as defined in RFC 9728:
//
//	http.HandleFunc(middleware.ProtectedResourceMetadataPath,
//	    config.HandleProtectedResourceMetadata)
package middleware
