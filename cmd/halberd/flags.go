package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/halberd/cmd/halberd/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
}

var globalFlags = &GlobalFlags{}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "", "Path to config file (default: $HALBERD_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&globalFlags.HomeDir, "home", "", "Halberd home directory (default: ~/.halberd)")
}

// ParseGlobalFlags parses and validates global flags from the command
func ParseGlobalFlags(cmd *cobra.Command) (*GlobalFlags, error) {
	format := globalFlags.OutputFormat
	if format != string(internal.FormatText) && format != string(internal.FormatJSON) {
		return nil, fmt.Errorf("invalid output format %q (expected text or json)", format)
	}

	if globalFlags.Verbose && globalFlags.Quiet {
		return nil, fmt.Errorf("--verbose and --quiet cannot be used together")
	}

	return globalFlags, nil
}

// GetOutputFormat returns the parsed OutputFormat enum
func (f *GlobalFlags) GetOutputFormat() internal.OutputFormat {
	if f.OutputFormat == string(internal.FormatJSON) {
		return internal.FormatJSON
	}
	return internal.FormatText
}

// IsVerbose returns true if verbose mode is enabled
func (f *GlobalFlags) IsVerbose() bool {
	return f.Verbose && !f.Quiet
}

// IsQuiet returns true if quiet mode is enabled
func (f *GlobalFlags) IsQuiet() bool {
	return f.Quiet
}

// formatter builds the output formatter for the command's stdout.
func (f *GlobalFlags) formatter(cmd *cobra.Command) internal.Formatter {
	return internal.NewFormatter(f.GetOutputFormat(), cmd.OutOrStdout())
}
