package cmd

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oci-logan/logan-mcp/internal/config"
	"github.com/oci-logan/logan-mcp/internal/credentials"
	"github.com/oci-logan/logan-mcp/internal/middleware"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd(t *testing.T) {
	assert.NotNil(t, serveCmd)
	assert.Equal(t, "serve", serveCmd.Use)
	assert.Equal(t, "Start the MCP server", serveCmd.Short)
	assert.NotNil(t, serveCmd.RunE)
}

func TestServeFlagDefaults(t *testing.T) {
	tests := map[string]string{
		"transport":                "http",
		"host":                     "0.0.0.0",
		"port":                     "8001",
		"http-path":                "/mcp",
		"env-file":                 ".env",
		"insecure":                 "false",
		"credential-probe-timeout": "2s",
	}

	for name, expected := range tests {
		t.Run(name, func(t *testing.T) {
			flag := serveCmd.Flags().Lookup(name)
			require.NotNil(t, flag)
			assert.Equal(t, expected, flag.DefValue)
		})
	}
}

func TestApplyFlags(t *testing.T) {
	// Create a new command instance to avoid modifying the global one
	testCmd := &cobra.Command{Use: "serve"}
	testCmd.Flags().StringVar(&transport, "transport", config.TransportHTTP, "")
	testCmd.Flags().StringVar(&host, "host", "0.0.0.0", "")
	testCmd.Flags().IntVar(&port, "port", 8001, "")
	testCmd.Flags().StringVar(&httpPath, "http-path", "/mcp", "")
	require.NoError(t, testCmd.Flags().Parse([]string{"--port", "9000", "--transport", "stdio"}))

	cfg := config.Config{Transport: "http", Host: "127.0.0.1", Port: 8001, HTTPPath: "/custom"}
	applyFlags(testCmd.Flags(), &cfg)

	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host, "unset flags keep the environment value")
	assert.Equal(t, "/custom", cfg.HTTPPath)
}

func testServerConfig(oauthEnabled bool) config.Config {
	return config.Config{
		Transport: config.TransportHTTP,
		Host:      "127.0.0.1",
		Port:      8001,
		HTTPPath:  "/mcp",
		OAuth: middleware.OAuthConfig{
			Enabled:           oauthEnabled,
			Mode:              middleware.ModeIntrospection,
			IssuerURL:         "https://idcs.example.com",
			IntrospectionURL:  "https://idcs.example.com/oauth2/v1/introspect",
			ClientID:          "logan",
			ClientSecret:      "s3cret",
			RequiredScopes:    []string{"mcp:tools"},
			ResourceServerURL: "https://logan.example.com",
		},
	}
}

func testMCPServer(cfg config.Config) *mcp.Server {
	resolver := credentials.NewResolver(credentials.NewOCIBuilder(0), credentials.Options{})
	return newMCPServer(cfg, resolver)
}

func TestHTTPHandlerWithOAuth(t *testing.T) {
	cfg := testServerConfig(true)
	handler, err := newHTTPHandler(context.Background(), cfg, testMCPServer(cfg), http.DefaultClient)
	require.NoError(t, err)

	t.Run("mcp endpoint requires a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Header().Get("WWW-Authenticate"),
			`resource_metadata="https://logan.example.com/.well-known/oauth-protected-resource"`)
		assert.NotContains(t, rr.Body.String(), "s3cret")
	})

	t.Run("metadata document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, middleware.ProtectedResourceMetadataPath, nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
		assert.Equal(t, "https://logan.example.com", doc["resource"])
		assert.Equal(t, []any{"https://idcs.example.com"}, doc["authorization_servers"])
		assert.NotContains(t, rr.Body.String(), "s3cret")
	})
}

func TestHTTPHandlerWithoutOAuth(t *testing.T) {
	cfg := testServerConfig(false)
	handler, err := newHTTPHandler(context.Background(), cfg, testMCPServer(cfg), http.DefaultClient)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, middleware.ProtectedResourceMetadataPath, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHTTPHandlerInvalidOAuth(t *testing.T) {
	cfg := testServerConfig(true)
	cfg.OAuth.IntrospectionURL = ""

	_, err := newHTTPHandler(context.Background(), cfg, testMCPServer(cfg), http.DefaultClient)

	assert.ErrorContains(t, err, "configuring OAuth")
}

func TestServeHTTPGracefulShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, listener, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusTeapot
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { logLevel = "" })

	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logLevel = level
		assert.NoError(t, initLogger(), level)
	}

	logLevel = "verbose"
	assert.Error(t, initLogger())
}
