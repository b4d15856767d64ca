package main

import (
	"github.com/spf13/cobra"
)

// Version information, set at build time via -ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := ParseGlobalFlags(cmd)
		if err != nil {
			return err
		}

		if flags.GetOutputFormat() == "json" {
			return flags.formatter(cmd).PrintJSON(map[string]string{
				"version":    version,
				"git_commit": gitCommit,
				"build_date": buildDate,
			})
		}

		cmd.Printf("halberd %s (commit %s, built %s)\n", version, gitCommit, buildDate)
		return nil
	},
}
