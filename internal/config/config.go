// Package config loads the server configuration from environment variables.
//
// Every variable is optional. A .env file in the working directory, or the file
// passed to LoadDotEnv, is read first and never overrides variables that are
// already set in the process environment.
//
// Server:
//   - MCP_TRANSPORT: "http" (default) or "stdio"
//   - MCP_HOST: listen host (default: 0.0.0.0)
//   - MCP_PORT: listen port (default: 8001)
//   - MCP_HTTP_PATH: path of the MCP endpoint (default: /mcp)
//
// OAuth (each also accepted with an MCP_ prefix, e.g. MCP_OAUTH_ENABLED):
//   - OAUTH_ENABLED: enable bearer token authorization (default: false)
//   - OAUTH_MODE: "introspection" (default), "jwt" or "static"
//   - OAUTH_ISSUER_URL, OAUTH_INTROSPECTION_URL
//   - OAUTH_JWKS_URL or OAUTH_JWKS_URI
//   - OAUTH_PUBLIC_KEY: PEM key used in jwt mode without a JWKS, "\n" escapes allowed
//   - OAUTH_ALGORITHM: accepted JWT algorithm (default: RS256)
//   - OAUTH_STATIC_TOKENS: JSON object of token to {"client_id", "scopes"}, static mode only
//   - OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET
//   - OAUTH_REQUIRED_SCOPES: comma separated
//   - OAUTH_RESOURCE_SERVER_URL, OAUTH_AUDIENCE, OAUTH_RESOURCE_DOCUMENTATION
//   - OAUTH_TOKEN_CACHE_ENABLED (default: true), OAUTH_TOKEN_CACHE_TTL in seconds (default: 300)
//   - OAUTH_INTROSPECTION_TIMEOUT in seconds (default: 5)
//
// OCI:
//   - OCI_CONFIG_FILE (default: ~/.oci/config), OCI_CLI_PROFILE (default: DEFAULT)
//   - LOGAN_REGION or OCI_REGION
//   - LOGAN_COMPARTMENT_ID, OCI_COMPARTMENT_ID or OCI_TENANCY
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/oci-logan/logan-mcp/internal/credentials"
	"github.com/oci-logan/logan-mcp/internal/middleware"
)

// Transports.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

const (
	defaultHost          = "0.0.0.0"
	defaultPort          = 8001
	defaultHTTPPath      = "/mcp"
	defaultTokenCacheTTL = 300 * time.Second
)

// Config is the process-wide configuration, loaded once at startup.
type Config struct {
	Transport string
	Host      string
	Port      int
	HTTPPath  string

	OAuth       middleware.OAuthConfig
	Credentials credentials.Options

	// Region and Compartment are reported by the health tool and used for
	// outbound OCI calls. Both may be empty.
	Region      string
	Compartment string
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadDotEnv reads variables from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration using lookup.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	env := environment{lookup: lookup}

	cfg := Config{
		Transport: strings.ToLower(env.str("MCP_TRANSPORT", TransportHTTP)),
		Host:      env.str("MCP_HOST", defaultHost),
		Port:      env.integer("MCP_PORT", defaultPort),
		HTTPPath:  env.str("MCP_HTTP_PATH", defaultHTTPPath),
		OAuth: middleware.OAuthConfig{
			Enabled:               env.boolean(oauthKey("ENABLED"), false),
			Mode:                  strings.ToLower(env.str(oauthKey("MODE"), middleware.ModeIntrospection)),
			IssuerURL:             env.str(oauthKey("ISSUER_URL"), ""),
			IntrospectionURL:      env.str(oauthKey("INTROSPECTION_URL"), ""),
			JwksURL:               env.first(oauthKey("JWKS_URL"), oauthKey("JWKS_URI")),
			PublicKey:             strings.ReplaceAll(env.str(oauthKey("PUBLIC_KEY"), ""), `\n`, "\n"),
			Algorithm:             env.str(oauthKey("ALGORITHM"), ""),
			StaticTokens:          env.staticTokens(oauthKey("STATIC_TOKENS")),
			ClientID:              env.str(oauthKey("CLIENT_ID"), ""),
			ClientSecret:          env.str(oauthKey("CLIENT_SECRET"), ""),
			RequiredScopes:        splitScopes(env.str(oauthKey("REQUIRED_SCOPES"), "")),
			ResourceServerURL:     env.str(oauthKey("RESOURCE_SERVER_URL"), ""),
			Audience:              env.str(oauthKey("AUDIENCE"), ""),
			ResourceDocumentation: env.str(oauthKey("RESOURCE_DOCUMENTATION"), ""),
			TokenCacheEnabled:     env.boolean(oauthKey("TOKEN_CACHE_ENABLED"), true),
			TokenCacheTTL:         env.duration(oauthKey("TOKEN_CACHE_TTL"), defaultTokenCacheTTL),
			IntrospectionTimeout:  env.duration(oauthKey("INTROSPECTION_TIMEOUT"), middleware.DefaultIntrospectionTimeout),
		},
		Credentials: credentials.Options{
			ConfigFilePath: env.str("OCI_CONFIG_FILE", ""),
			Profile:        env.str("OCI_CLI_PROFILE", credentials.DefaultProfile),
		},
		Region:      env.first("LOGAN_REGION", "OCI_REGION"),
		Compartment: env.first("LOGAN_COMPARTMENT_ID", "OCI_COMPARTMENT_ID", "OCI_TENANCY"),
	}
	if len(env.errs) > 0 {
		return Config{}, errors.Join(env.errs...)
	}

	return cfg, nil
}

// Validate reports configuration the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.Transport {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("MCP_TRANSPORT must be %q or %q, got %q", TransportHTTP, TransportStdio, c.Transport))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("MCP_PORT must be between 1 and 65535, got %d", c.Port))
	}
	if !strings.HasPrefix(c.HTTPPath, "/") {
		errs = append(errs, fmt.Errorf("MCP_HTTP_PATH must start with /, got %q", c.HTTPPath))
	}

	if c.OAuth.Enabled {
		switch c.OAuth.Mode {
		case middleware.ModeIntrospection:
			if c.OAuth.IntrospectionURL == "" {
				errs = append(errs, errors.New("OAUTH_INTROSPECTION_URL is required in introspection mode"))
			}
			if c.OAuth.ClientID == "" {
				errs = append(errs, errors.New("OAUTH_CLIENT_ID is required in introspection mode"))
			}
		case middleware.ModeJWT:
			if c.OAuth.JwksURL == "" && c.OAuth.PublicKey == "" {
				errs = append(errs, errors.New("OAUTH_JWKS_URL or OAUTH_PUBLIC_KEY is required in jwt mode"))
			}
		case middleware.ModeStatic:
			if len(c.OAuth.StaticTokens) == 0 {
				errs = append(errs, errors.New("OAUTH_STATIC_TOKENS is required in static mode"))
			}
		default:
			errs = append(errs, fmt.Errorf("OAUTH_MODE must be %q, %q or %q, got %q",
				middleware.ModeIntrospection, middleware.ModeJWT, middleware.ModeStatic, c.OAuth.Mode))
		}
		if c.OAuth.ResourceServerURL == "" {
			errs = append(errs, errors.New("OAUTH_RESOURCE_SERVER_URL is required when OAuth is enabled"))
		}
	}

	return errors.Join(errs...)
}

// oauthKey returns the canonical name of an OAuth variable.
func oauthKey(suffix string) string {
	return "OAUTH_" + suffix
}

func splitScopes(raw string) []string {
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}

	return scopes
}

// environment reads typed values and collects parse errors.
type environment struct {
	lookup func(string) (string, bool)
	errs   []error
}

// get returns the value of key, falling back to MCP_<key> for OAuth variables.
func (e *environment) get(key string) (string, bool) {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	if strings.HasPrefix(key, "OAUTH_") {
		if v, ok := e.lookup("MCP_" + key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}

	return "", false
}

func (e *environment) str(key, def string) string {
	if v, ok := e.get(key); ok {
		return v
	}

	return def
}

func (e *environment) first(keys ...string) string {
	for _, key := range keys {
		if v, ok := e.get(key); ok {
			return v
		}
	}

	return ""
}

func (e *environment) boolean(key string, def bool) bool {
	v, ok := e.get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}

	return b
}

func (e *environment) integer(key string, def int) int {
	v, ok := e.get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}

	return n
}

// duration parses a whole or fractional number of seconds.
func (e *environment) duration(key string, def time.Duration) time.Duration {
	v, ok := e.get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number of seconds %q", key, v))
		return def
	}

	return time.Duration(f * float64(time.Second))
}

// staticTokens parses a JSON object mapping tokens to their grants.
func (e *environment) staticTokens(key string) map[string]middleware.StaticToken {
	v, ok := e.get(key)
	if !ok {
		return nil
	}
	var tokens map[string]middleware.StaticToken
	if err := json.Unmarshal([]byte(v), &tokens); err != nil {
		// The value holds secrets and is never echoed.
		e.errs = append(e.errs, fmt.Errorf("%s: invalid JSON object: %w", key, err))
		return nil
	}

	return tokens
}
