package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oci-logan/logan-mcp/internal/config"
	"github.com/oci-logan/logan-mcp/internal/credentials"
	"github.com/oci-logan/logan-mcp/internal/middleware"
	"github.com/oci-logan/logan-mcp/pkg/client"
	"github.com/oci-logan/logan-mcp/pkg/toolsets"
	"github.com/oci-logan/logan-mcp/pkg/toolsets/health"
	"github.com/oci-logan/logan-mcp/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	serverName        = "oci-logan-mcp"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var (
	transport              string
	host                   string
	port                   int
	httpPath               string
	envFile                string
	insecure               bool
	credentialProbeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server. Settings are read from the environment (and the .env file);
flags given on the command line take precedence.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&transport, "transport", config.TransportHTTP, "Transport to serve MCP on (http, stdio)")
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host to listen on")
	serveCmd.Flags().IntVar(&port, "port", 8001, "Port to listen on")
	serveCmd.Flags().StringVar(&httpPath, "http-path", "/mcp", "Path of the MCP endpoint")
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "File to load environment variables from")
	serveCmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS verification towards the authorization server")
	serveCmd.Flags().DurationVar(&credentialProbeTimeout, "credential-probe-timeout", credentials.DefaultProbeTimeout, "Timeout of the OCI instance metadata probe")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyFlags(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.OAuth.InsecureTLS = insecure

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := credentials.NewResolver(credentials.NewOCIBuilder(credentialProbeTimeout), cfg.Credentials)
	provider, err := resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolving OCI credentials: %w", err)
	}
	zap.L().Info("OCI credentials resolved", zap.String("provider", string(provider.Kind())))

	mcpServer := newMCPServer(cfg, resolver)

	if cfg.Transport == config.TransportStdio {
		zap.L().Info("MCP Server started!", zap.String("transport", cfg.Transport))
		return mcpServer.Run(ctx, &mcp.StdioTransport{})
	}

	handler, err := newHTTPHandler(ctx, cfg, mcpServer, newHTTPClient(insecure))
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
	}
	zap.L().Info("MCP Server started!",
		zap.String("transport", cfg.Transport),
		zap.String("addr", listener.Addr().String()),
		zap.String("path", cfg.HTTPPath),
		zap.Bool("oauth", cfg.OAuth.Enabled))

	return serveHTTP(ctx, listener, handler)
}

// applyFlags overrides the environment with flags set on the command line.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("transport") {
		cfg.Transport = transport
	}
	if flags.Changed("host") {
		cfg.Host = host
	}
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("http-path") {
		cfg.HTTPPath = httpPath
	}
}

func newMCPServer(cfg config.Config, resolver *credentials.Resolver) *mcp.Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version.GetVersion()}, nil)

	toolsets.NewToolSetsWithAllTools(resolver, client.NewClient(cfg.Region), health.ServerInfo{
		Version:      version.GetVersion(),
		Transport:    cfg.Transport,
		OAuthEnabled: cfg.OAuth.Enabled,
		OAuthMode:    cfg.OAuth.Mode,
		Region:       cfg.Region,
		Compartment:  cfg.Compartment,
	}).AddTools(mcpServer)

	return mcpServer
}

// newHTTPHandler mounts the discovery document and the OAuth guarded MCP endpoint.
func newHTTPHandler(ctx context.Context, cfg config.Config, mcpServer *mcp.Server, httpClient *http.Client) (http.Handler, error) {
	oauth, err := middleware.NewOAuth(ctx, cfg.OAuth, httpClient)
	if err != nil {
		return nil, fmt.Errorf("configuring OAuth: %w", err)
	}

	handler := mcp.NewStreamableHTTPHandler(func(request *http.Request) *mcp.Server {
		return mcpServer
	}, &mcp.StreamableHTTPOptions{})

	mux := http.NewServeMux()
	if cfg.OAuth.Enabled {
		mux.HandleFunc(middleware.ProtectedResourceMetadataPath, cfg.OAuth.HandleProtectedResourceMetadata)
	}
	mux.Handle(cfg.HTTPPath, oauth.Middleware(handler))

	return mux, nil
}

func newHTTPClient(insecure bool) *http.Client {
	if !insecure {
		return &http.Client{}
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

// serveHTTP serves until ctx is done, then drains in-flight requests.
func serveHTTP(ctx context.Context, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zap.L().Info("Shutting down MCP Server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	return nil
}
