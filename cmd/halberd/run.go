package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/halberd/cmd/halberd/internal"
	"github.com/vectra-ai-research/halberd/internal/engine"
	"github.com/vectra-ai-research/halberd/internal/report"
)

var historyLimit int

var runCmd = &cobra.Command{
	Use:   "run NAME",
	Short: "Execute a playbook",
	Long: `Executes the named playbook step by step, honoring each step's
wait, and prints the per-step outcomes. The run's artifacts are written
under the outputs directory as the run proceeds.`,
	Args: cobra.ExactArgs(1),
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

		run, err := app.engine.Execute(cmd.Context(), pb)
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		if !flags.IsQuiet() {
			cmd.Printf("Run %s started (%d steps), artifacts in %s\n",
				run.ID(), run.TotalSteps(), run.RunDir())
		}

		state, err := run.Wait(cmd.Context())
		if err != nil {
			return err
		}

		records, parseErr := report.ParseRunDir(run.RunDir())
		if parseErr == nil {
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					strconv.Itoa(record.Position),
					record.Module,
					record.Status.String(),
					record.Message,
				})
			}
			if err := flags.formatter(cmd).PrintTable(
				[]string{"Position", "Module", "Status", "Message"}, rows); err != nil {
				return err
			}
		}

		if state == engine.RunStateCancelled {
			return internal.NewCLIError(internal.ExitCancelled,
				fmt.Sprintf("run cancelled after %d of %d steps", run.CompletedSteps(), run.TotalSteps()))
		}
		return flags.formatter(cmd).PrintSuccess(
			fmt.Sprintf("Run complete: %d steps, report in %s", run.TotalSteps(), run.RunDir()))
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [NAME]",
	Short: "List past playbook runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		playbookName := ""
		if len(args) == 1 {
			playbookName = args[0]
		}

		runs, err := app.history.ListRuns(cmd.Context(), playbookName, historyLimit)
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		rows := make([][]string, 0, len(runs))
		for _, run := range runs {
			completed := ""
			if run.CompletedAt != nil {
				completed = run.CompletedAt.Format("2006-01-02 15:04:05")
			}
			rows = append(rows, []string{
				run.ID.String(),
				run.PlaybookName,
				strconv.Itoa(run.StepCount),
				run.Status,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				completed,
			})
		}
		return flags.formatter(cmd).PrintTable(
			[]string{"Run ID", "Playbook", "Steps", "Status", "Started", "Completed"}, rows)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show")
}
