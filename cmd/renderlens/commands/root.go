package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/renderlens/renderlens/internal/logging"
)

const Version = "0.1.0"

var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "renderlens",
	Short: "RenderLens - UI render performance analysis",
	Long: `RenderLens ingests streams of UI render events, aggregates per-component
statistics, detects render cascades and produces actionable fix suggestions.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the YAML config file (optional, defaults apply when omitted)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rulesCmd)
}

// HandleError prints error and exits
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}

// setupLog initializes the logging system with the parsed log level flag
func setupLog(level string) error {
	if err := validateLogLevel(level); err != nil {
		return err
	}
	return logging.Initialize(level)
}

// validateLogLevel checks if a level string is valid
func validateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", level)
	}
	return nil
}
