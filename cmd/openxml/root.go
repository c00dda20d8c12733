package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/benjaminschreck/go-openxml/pkg/openxml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	// Global flags
	configPath string
	inMemory   bool
	logLevel   string
	verbose    bool
	quiet      bool
)

// stdout is swapped by tests.
var stdout io.Writer = os.Stdout

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openxml",
		Short: "Inspect and repack Office Open XML packages",
		Long: `openxml reads XLSX, DOCX and PPTX packages through the same staging
store the library uses, so what it prints is what a program built on
the library would see.

Configuration is read from --config (YAML), then OPENXML_* environment
variables, then the flags below.`,
		SilenceUsage:      true,
		PersistentPreRunE: applyConfig,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false, "Stage the package in memory instead of a scratch file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error, off)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")

	cmd.AddCommand(
		newLsCmd(),
		newCatCmd(),
		newRepackCmd(),
		newCoreCmd(),
		newVersionCmd(),
	)
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// applyConfig builds the session configuration and installs it globally so
// every command opens packages the same way.
func applyConfig(cmd *cobra.Command, _ []string) error {
	config := openxml.ConfigFromEnvironment()
	if configPath != "" {
		fileConfig, err := openxml.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		config = fileConfig
	}

	if cmd.Flags().Changed("in-memory") {
		config.InMemory = inMemory
	}
	switch {
	case logLevel != "":
		config.LogLevel = logLevel
	case quiet:
		config.LogLevel = "error"
	case verbose:
		config.LogLevel = "debug"
	case configPath == "" && os.Getenv("OPENXML_LOG_LEVEL") == "":
		// Store and archive events are noise on a terminal.
		config.LogLevel = "warn"
	}

	if err := config.Validate(); err != nil {
		return err
	}
	openxml.SetLogger(openxml.NewLogger(os.Stderr, openxml.ParseLogLevel(config.LogLevel)))
	openxml.SetGlobalConfig(config)
	return nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printYAML outputs data as YAML
func printYAML(v any) error {
	encoder := yaml.NewEncoder(stdout)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// openPackage opens path with the global configuration.
func openPackage(path string) (*openxml.Package, error) {
	printVerbose("Opening package: %s\n", path)
	return openxml.Open(path, nil)
}
