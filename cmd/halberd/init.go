package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/halberd/cmd/halberd/internal"
	"github.com/vectra-ai-research/halberd/internal/bootstrap"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the Halberd home directory",
	Long: `Creates the Halberd home directory layout (playbooks, outputs,
exports, logs), a default configuration file, and the run-history
database. Safe to rerun; existing files are kept unless --force.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := ParseGlobalFlags(cmd)
		if err != nil {
			return err
		}

		result, err := bootstrap.NewInitializer().Initialize(cmd.Context(), bootstrap.Options{
			HomeDir: resolveHomeDir(flags),
			Force:   initForce,
		})
		if err != nil {
			return err
		}

		formatter := flags.formatter(cmd)
		if flags.GetOutputFormat() == internal.FormatJSON {
			return formatter.PrintJSON(result)
		}

		formatter.PrintSuccess("Halberd home initialized at " + result.HomeDir)
		for _, dir := range result.DirsCreated {
			cmd.Printf("  created %s/\n", dir)
		}
		if result.ConfigCreated {
			cmd.Println("  created config.yaml")
		}
		if result.DatabaseCreated {
			cmd.Println("  created halberd.db")
		}
		for _, warning := range result.Warnings {
			cmd.Println("  warning:", warning)
		}
		if len(result.DirsCreated) == 0 && !result.ConfigCreated && !result.DatabaseCreated {
			fmt.Fprintln(cmd.OutOrStdout(), "  nothing to do")
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Rewrite the config file even if it exists")
}
