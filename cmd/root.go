package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "logan-mcp",
	Short: "OCI Logging Analytics Model Context Protocol (MCP) Server",
	Long: `The MCP server exposes Oracle Cloud Infrastructure Logging Analytics to LLM clients.
Inbound requests are authorized with OAuth 2.1 bearer tokens and outbound OCI calls
are signed with instance principal or config file credentials.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
}

// Execute runs the root command
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set the log level (debug, info, warn, error)")
}

func initLogger() error {
	if strings.ToLower(logLevel) == "debug" {
		zap.ReplaceGlobals(zap.Must(zap.NewDevelopment()))
		return nil
	}

	config := zap.NewProductionConfig()
	// remove the "caller" key from the log output
	config.EncoderConfig.CallerKey = zapcore.OmitKey
	if logLevel != "" {
		level, err := zapcore.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}
	zap.ReplaceGlobals(zap.Must(config.Build()))

	return nil
}
