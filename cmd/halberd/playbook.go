package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/halberd/cmd/halberd/internal"
	"github.com/vectra-ai-research/halberd/internal/playbook"
)

var playbookCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Manage attack playbooks",
}

var playbookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all playbooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		playbooks, err := app.playbooks.List()
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		rows := make([][]string, 0, len(playbooks))
		for _, pb := range playbooks {
			rows = append(rows, []string{
				pb.Name,
				strconv.Itoa(pb.StepCount()),
				pb.Author,
				pb.CreationDate,
				pb.Description,
			})
		}
		return flags.formatter(cmd).PrintTable(
			[]string{"Name", "Steps", "Author", "Created", "Description"}, rows)
	},
}

var (
	createAuthor      string
	createDescription string
	createReferences  []string
)

var playbookCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new empty playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		pb, err := app.playbooks.Create(args[0], createAuthor, createDescription, createReferences)
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		return flags.formatter(cmd).PrintSuccess(
			fmt.Sprintf("Created playbook %q (%s)", pb.Name, pb.FileName()))
	},
}

var playbookShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a playbook's steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		pb, err := app.playbooks.LoadByName(args[0])
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		if flags.GetOutputFormat() == internal.FormatJSON {
			return flags.formatter(cmd).PrintJSON(pb)
		}

		cmd.Printf("Name:        %s\n", pb.Name)
		cmd.Printf("Author:      %s\n", pb.Author)
		cmd.Printf("Created:     %s\n", pb.CreationDate)
		cmd.Printf("Description: %s\n", pb.Description)
		for _, ref := range pb.References {
			cmd.Printf("Reference:   %s\n", ref)
		}
		cmd.Println()

		rows := make([][]string, 0, len(pb.Steps))
		for i, step := range pb.Steps {
			params := make([]string, 0, len(step.Params))
			for key, value := range step.Params {
				params = append(params, fmt.Sprintf("%s=%v", key, value))
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				step.Module,
				strings.Join(params, " "),
				strconv.Itoa(step.Wait),
			})
		}
		return flags.formatter(cmd).PrintTable(
			[]string{"Position", "Module", "Params", "Wait"}, rows)
	},
}

var (
	stepModule   string
	stepParams   []string
	stepWait     int
	stepPosition int
)

var playbookAddStepCmd = &cobra.Command{
	Use:   "add-step NAME",
	Short: "Add a step to a playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		pb, err := app.playbooks.LoadByName(args[0])
		if err != nil {
			return err
		}

		params, err := parseParams(stepParams)
		if err != nil {
			return err
		}
		step := playbook.Step{Module: stepModule, Params: params, Wait: stepWait}

		if stepPosition > 0 {
			err = pb.AddStep(step, stepPosition)
		} else {
			err = pb.AppendStep(step)
		}
		if err != nil {
			return err
		}
		if err := app.playbooks.Save(pb); err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		return flags.formatter(cmd).PrintSuccess(
			fmt.Sprintf("Added %s to %q (%d steps)", stepModule, pb.Name, pb.StepCount()))
	},
}

var playbookRemoveStepCmd = &cobra.Command{
	Use:   "remove-step NAME POSITION",
	Short: "Remove a step from a playbook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.Atoi(args[1])
		if err != nil {
			return internal.NewCLIError(internal.ExitError,
				fmt.Sprintf("invalid position %q", args[1]))
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		pb, err := app.playbooks.LoadByName(args[0])
		if err != nil {
			return err
		}
		if err := pb.RemoveStep(position); err != nil {
			return err
		}
		if err := app.playbooks.Save(pb); err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		return flags.formatter(cmd).PrintSuccess(
			fmt.Sprintf("Removed step %d from %q (%d steps)", position, pb.Name, pb.StepCount()))
	},
}

var playbookDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.playbooks.Delete(args[0]); err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		return flags.formatter(cmd).PrintSuccess(fmt.Sprintf("Deleted playbook %q", args[0]))
	},
}

var exportIncludeParams bool

var playbookExportCmd = &cobra.Command{
	Use:   "export NAME",
	Short: "Export a playbook to a portable file",
	Long: `Writes the playbook to the export directory. Parameter values are
masked unless --include-params is given, so exports are safe to share.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		path, err := app.playbooks.Export(args[0], exportIncludeParams)
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		return flags.formatter(cmd).PrintSuccess("Exported to " + path)
	},
}

var playbookImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a playbook from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contents, err := os.ReadFile(args[0])
		if err != nil {
			return internal.WrapError(internal.ExitError, "failed to read "+args[0], err)
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		pb, err := app.playbooks.Import(contents)
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		return flags.formatter(cmd).PrintSuccess(
			fmt.Sprintf("Imported playbook %q (%d steps)", pb.Name, pb.StepCount()))
	},
}

var playbookProgressCmd = &cobra.Command{
	Use:   "progress NAME",
	Short: "Show the latest run's progress for a playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		pb, err := app.playbooks.LoadByName(args[0])
		if err != nil {
			return err
		}

		progress, err := app.tracker.Progress(pb.Name, pb.StepCount())
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		if flags.GetOutputFormat() == internal.FormatJSON {
			return flags.formatter(cmd).PrintJSON(progress)
		}

		if progress.RunDir == "" {
			cmd.Printf("%s: no runs yet (0/%d steps)\n", pb.Name, progress.Total)
			return nil
		}
		cmd.Printf("%s: %d/%d steps", pb.Name, progress.Completed, progress.Total)
		if progress.Done() {
			cmd.Println(" (complete)")
		} else {
			cmd.Println(" (running)")
		}
		cmd.Println("Run dir:", progress.RunDir)
		return nil
	},
}

// parseParams converts key=value arguments into a parameter map.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, internal.NewCLIError(internal.ExitError,
				fmt.Sprintf("invalid parameter %q (expected key=value)", pair))
		}
		params[key] = value
	}
	return params, nil
}

func init() {
	playbookCreateCmd.Flags().StringVar(&createAuthor, "author", "", "Playbook author")
	playbookCreateCmd.Flags().StringVar(&createDescription, "description", "", "Playbook description")
	playbookCreateCmd.Flags().StringSliceVar(&createReferences, "reference", nil, "Reference link (repeatable)")

	playbookAddStepCmd.Flags().StringVar(&stepModule, "module", "", "Technique ID to invoke")
	playbookAddStepCmd.Flags().StringArrayVar(&stepParams, "param", nil, "Step parameter as key=value (repeatable)")
	playbookAddStepCmd.Flags().IntVar(&stepWait, "wait", 0, "Seconds to wait after the step")
	playbookAddStepCmd.Flags().IntVar(&stepPosition, "position", 0, "1-based insert position (default: append)")
	playbookAddStepCmd.MarkFlagRequired("module")

	playbookExportCmd.Flags().BoolVar(&exportIncludeParams, "include-params", false, "Keep parameter values instead of masking them")

	playbookCmd.AddCommand(playbookListCmd)
	playbookCmd.AddCommand(playbookCreateCmd)
	playbookCmd.AddCommand(playbookShowCmd)
	playbookCmd.AddCommand(playbookAddStepCmd)
	playbookCmd.AddCommand(playbookRemoveStepCmd)
	playbookCmd.AddCommand(playbookDeleteCmd)
	playbookCmd.AddCommand(playbookExportCmd)
	playbookCmd.AddCommand(playbookImportCmd)
	playbookCmd.AddCommand(playbookProgressCmd)
}
