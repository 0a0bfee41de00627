package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Verifier modes.
const (
	ModeIntrospection = "introspection"
	ModeJWT           = "jwt"
	ModeStatic        = "static"
)

// OAuth 2.0 bearer token error codes (RFC 6750 section 3.1).
const (
	errCodeInvalidRequest    = "invalid_request"
	errCodeInvalidToken      = "invalid_token"
	errCodeInsufficientScope = "insufficient_scope"
)

var (
	errMissingToken      = errors.New("missing authorization header")
	errMalformedToken    = errors.New("invalid Bearer token")
	errExpiredToken      = errors.New("token expired")
	errInsufficientScope = errors.New("insufficient scope")
	errAudienceMismatch  = errors.New("audience mismatch")
)

// OAuthConfig holds OAuth configuration. It is loaded once at startup and never mutated.
type OAuthConfig struct {
	// Enabled turns the middleware on. When false every request is passed through.
	Enabled bool

	// Mode selects the verifier: ModeIntrospection (default), ModeJWT or ModeStatic.
	Mode string

	// IssuerURL is the authorization server issuing tokens for this resource server.
	// https://modelcontextprotocol.io/specification/draft/basic/authorization#authorization-server-location
	IssuerURL string

	// IntrospectionURL is the RFC 7662 endpoint used in introspection mode.
	IntrospectionURL string

	// JwksURL is the URL to fetch the JSON Web Key Set (JWKS) from in jwt mode.
	JwksURL string

	// PublicKey is a PEM encoded key used in jwt mode when JwksURL is empty.
	PublicKey string

	// Algorithm is the accepted JWT signing algorithm. Defaults to RS256.
	Algorithm string

	// StaticTokens maps fixed bearer tokens to their grants in static mode.
	// Meant for development only.
	StaticTokens map[string]StaticToken

	// ClientID and ClientSecret authenticate this server to the introspection endpoint.
	ClientID     string
	ClientSecret string

	// RequiredScopes must all be granted to the token.
	// https://modelcontextprotocol.io/specification/draft/basic/authorization#scope-selection-strategy
	RequiredScopes []string

	// ResourceServerURL is the user-facing URL for this resource server.
	ResourceServerURL string

	// Audience is the expected aud claim. Defaults to ResourceServerURL when empty.
	Audience string

	// ResourceDocumentation is an optional human readable documentation URL.
	ResourceDocumentation string

	TokenCacheEnabled bool
	TokenCacheTTL     time.Duration

	// IntrospectionTimeout bounds each introspection call.
	IntrospectionTimeout time.Duration

	// InsecureTLS skips TLS verification towards the authorization server.
	// This should ONLY be used for testing purposes.
	InsecureTLS bool
}

// ExpectedAudience returns the audience tokens must be issued for, or empty if none is configured.
func (c OAuthConfig) ExpectedAudience() string {
	if c.Audience != "" {
		return c.Audience
	}

	return c.ResourceServerURL
}

// OAuth performs OAuth 2.1 bearer token authorization in front of the MCP handler.
type OAuth struct {
	config   OAuthConfig
	verifier TokenVerifier
	cache    *TokenCache
	now      func() time.Time
}

// NewOAuth builds the verifier selected by cfg.Mode and returns the middleware.
// A disabled config needs no verifier.
func NewOAuth(ctx context.Context, cfg OAuthConfig, client *http.Client) (*OAuth, error) {
	if !cfg.Enabled {
		zap.L().Info("OAuth authorization disabled")
		return NewOAuthWithVerifier(cfg, nil), nil
	}

	var verifier TokenVerifier
	switch cfg.Mode {
	case ModeJWT:
		v, err := NewJWTVerifier(ctx, cfg)
		if err != nil {
			return nil, err
		}
		verifier = v
	case ModeStatic:
		if len(cfg.StaticTokens) == 0 {
			return nil, fmt.Errorf("static tokens cannot be empty")
		}
		zap.L().Warn("Static token mode is enabled, do not use it in production")
		verifier = NewStaticVerifier(cfg)
	case ModeIntrospection, "":
		if cfg.IntrospectionURL == "" {
			return nil, fmt.Errorf("introspection URL cannot be empty")
		}
		verifier = NewIntrospector(cfg, client)
	default:
		return nil, fmt.Errorf("unknown OAuth mode %q", cfg.Mode)
	}

	zap.L().Info("OAuth authorization enabled",
		zap.String("mode", cfg.Mode),
		zap.String("resource", cfg.ResourceServerURL),
		zap.Strings("requiredScopes", cfg.RequiredScopes),
		zap.Bool("tokenCache", cfg.TokenCacheEnabled && cfg.TokenCacheTTL > 0))

	return NewOAuthWithVerifier(cfg, verifier), nil
}

// NewOAuthWithVerifier returns the middleware using the given verifier.
func NewOAuthWithVerifier(cfg OAuthConfig, verifier TokenVerifier) *OAuth {
	return &OAuth{
		config:   cfg,
		verifier: verifier,
		cache:    NewTokenCache(cfg.TokenCacheEnabled, cfg.TokenCacheTTL),
		now:      time.Now,
	}
}

// authError is a terminal deny outcome.
type authError struct {
	status      int
	code        string
	description string
	scope       string
	cause       error
}

// Middleware is a middleware that performs OAuth 2.1 authorization.
func (o *OAuth) Middleware(next http.Handler) http.Handler {
	if !o.config.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			o.deny(w, r, &authError{
				status:      http.StatusUnauthorized,
				code:        errCodeInvalidRequest,
				description: "missing or malformed bearer token",
				cause:       err,
			})
			return
		}

		info, authErr := o.authorize(r.Context(), token)
		if authErr != nil {
			o.deny(w, r, authErr)
			return
		}

		// Authorization successful - proceed to next handler providing
		// the token and its claims in context.
		ctx := WithTokenInfo(WithToken(r.Context(), token), info)
		next.ServeHTTP(w, r.Clone(ctx))
	})
}

// authorize runs the verification steps after extraction, in order.
func (o *OAuth) authorize(ctx context.Context, token string) (*TokenInfo, *authError) {
	info, err := o.resolveTokenInfo(ctx, token)
	if err != nil {
		// Introspection outages are reported exactly like invalid tokens.
		return nil, &authError{
			status:      http.StatusUnauthorized,
			code:        errCodeInvalidToken,
			description: "the access token is invalid or expired",
			cause:       err,
		}
	}

	if info.Expired(o.now()) {
		return nil, &authError{
			status:      http.StatusUnauthorized,
			code:        errCodeInvalidToken,
			description: "the access token is invalid or expired",
			cause:       errExpiredToken,
		}
	}

	if missing := o.missingScopes(info); len(missing) > 0 {
		return nil, &authError{
			status:      http.StatusForbidden,
			code:        errCodeInsufficientScope,
			description: "missing required scopes: " + strings.Join(missing, " "),
			scope:       strings.Join(o.config.RequiredScopes, " "),
			cause:       errInsufficientScope,
		}
	}

	if aud := o.config.ExpectedAudience(); aud != "" && !info.Aud.Contains(aud) {
		return nil, &authError{
			status:      http.StatusForbidden,
			code:        errCodeInvalidToken,
			description: "the access token was not issued for this resource",
			cause:       errAudienceMismatch,
		}
	}

	return info, nil
}

func (o *OAuth) resolveTokenInfo(ctx context.Context, token string) (*TokenInfo, error) {
	if info, ok := o.cache.Get(token); ok {
		return info, nil
	}

	info, err := o.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if info == nil || !info.Active {
		return nil, ErrInactiveToken
	}

	// Nothing is cached once the caller has gone away.
	if ctx.Err() == nil {
		o.cache.Put(token, info, o.config.TokenCacheTTL)
	}

	return info, nil
}

func (o *OAuth) missingScopes(info *TokenInfo) []string {
	granted := map[string]struct{}{}
	for _, s := range info.Scopes() {
		granted[s] = struct{}{}
	}

	var missing []string
	for _, s := range o.config.RequiredScopes {
		if _, ok := granted[s]; !ok {
			missing = append(missing, s)
		}
	}

	return missing
}

// deny writes the error response: WWW-Authenticate challenge plus a JSON body.
func (o *OAuth) deny(w http.ResponseWriter, r *http.Request, e *authError) {
	zap.L().Info("Request denied",
		zap.String("path", r.URL.Path),
		zap.Int("status", e.status),
		zap.String("error", e.code),
		zap.NamedError("reason", e.cause))

	w.Header().Set("WWW-Authenticate", o.challenge(e))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.status)

	body := map[string]string{
		"error":             e.code,
		"error_description": e.description,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("Failed to write error response", zap.Error(err))
	}
}

func (o *OAuth) challenge(e *authError) string {
	params := []string{
		fmt.Sprintf("realm=%q", o.config.ResourceServerURL),
		fmt.Sprintf("error=%q", e.code),
		fmt.Sprintf("error_description=%q", e.description),
	}
	if e.scope != "" {
		params = append(params, fmt.Sprintf("scope=%q", e.scope))
	}

	metadataURL, err := url.JoinPath(o.config.ResourceServerURL, ProtectedResourceMetadataPath)
	if err != nil {
		zap.L().Error("Failed to construct metadata URL", zap.Error(err))
	} else {
		params = append(params, fmt.Sprintf("resource_metadata=%q", metadataURL))
	}

	return "Bearer " + strings.Join(params, ", ")
}
