// Package cmd provides the CLI commands for toolcat.
package cmd

import (
	"os"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/cameronsjo/toolcat/internal/config"
	"github.com/cameronsjo/toolcat/internal/logging"
	"github.com/cameronsjo/toolcat/internal/ui"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string
	logFormat  string

	// Populated by loadConfig before any subcommand runs.
	cfg    *config.Config
	logger log.Logger = logging.Nop()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "toolcat",
	Short: "Note format converter - JSON, YAML and Protobuf",
	Long: `toolcat - note format converter

Converts note documents between JSON, YAML and a binary Protobuf envelope.
Conversions go to the conversion service first; JSON and YAML fall back to
a built-in converter when the service cannot be reached.

CONVERT COMMANDS
  convert json-to-yaml [file]       JSON (or JSONC) to YAML
  convert yaml-to-json [file]       YAML to JSON
  convert json-to-protobuf [file]   JSON to Protobuf (service only)
  convert protobuf-to-json [file]   Protobuf to JSON (service only)
    --output, -o <file>             Write to a file instead of stdout
    --local                         Skip the conversion service
    --remote <url>                  Override the service URL

SERVICE COMMANDS
  serve                             Run the conversion service
  info                              Show converter plugin info

CONFIGURATION
  Settings are read from .toolcat.yaml in the working directory or a
  parent, then from TOOLCAT_* environment variables.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: discover "+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: logfmt, json")

	registerFlagCompletions()

	rootCmd.SilenceErrors = true
	rootCmd.SetVersionTemplate("toolcat version {{.Version}}\n")
}

// loadConfig reads configuration, applies flag overrides and builds the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		c.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		c.Log.Format = logFormat
	}

	l, err := logging.New(cmd.ErrOrStderr(), c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}

	cfg = c
	logger = l
	return nil
}
