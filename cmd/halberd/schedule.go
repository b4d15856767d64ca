package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/halberd/cmd/halberd/internal"
	"github.com/vectra-ai-research/halberd/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage playbook schedules",
}

var (
	schedulePlaybook  string
	scheduleStart     string
	scheduleEnd       string
	scheduleTime      string
	scheduleRepeat    bool
	scheduleFrequency string
)

var scheduleAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a playbook schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		// Fail fast on dangling playbook references.
		if _, err := app.playbooks.LoadByName(schedulePlaybook); err != nil {
			return err
		}

		sched := schedule.Schedule{
			PlaybookID:      schedulePlaybook,
			StartDate:       scheduleStart,
			EndDate:         scheduleEnd,
			ExecutionTime:   scheduleTime,
			Repeat:          scheduleRepeat,
			RepeatFrequency: schedule.RepeatFrequency(scheduleFrequency),
		}
		if err := app.schedules.Add(args[0], sched); err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		return flags.formatter(cmd).PrintSuccess(
			fmt.Sprintf("Scheduled %q to run %s at %s", schedulePlaybook, args[0], scheduleTime))
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		schedules, names, err := app.schedules.List()
		if err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			sched := schedules[name]
			frequency := ""
			if sched.Repeat {
				frequency = sched.RepeatFrequency.String()
			}
			rows = append(rows, []string{
				name,
				sched.PlaybookID,
				sched.StartDate,
				sched.EndDate,
				sched.ExecutionTime,
				strconv.FormatBool(sched.Repeat),
				frequency,
			})
		}
		return flags.formatter(cmd).PrintTable(
			[]string{"Name", "Playbook", "Start", "End", "Time", "Repeat", "Frequency"}, rows)
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.schedules.Delete(args[0]); err != nil {
			return err
		}

		flags, _ := ParseGlobalFlags(cmd)
		return flags.formatter(cmd).PrintSuccess(fmt.Sprintf("Deleted schedule %q", args[0]))
	},
}

var scheduleWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the schedule evaluator loop",
	Long: `Polls the schedules file and fires due schedules through the
engine until interrupted. The polling interval is the configured
schedules.poll_interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		flags, _ := ParseGlobalFlags(cmd)
		if !flags.IsQuiet() {
			cmd.Printf("Watching schedules in %s (every %s), Ctrl-C to stop\n",
				app.schedules.Path(), app.cfg.Schedules.PollInterval)
		}

		evaluator := schedule.NewEvaluator(
			app.schedules, app.playbooks, app.engine, app.cfg.Schedules.PollInterval, app.logger)
		if err := evaluator.Run(cmd.Context()); err != nil {
			// A cancelled context is the normal way to stop watching.
			if cmd.Context().Err() != nil {
				return nil
			}
			return internal.WrapError(internal.ExitScheduleError, "schedule evaluator stopped", err)
		}
		return nil
	},
}

func init() {
	scheduleAddCmd.Flags().StringVar(&schedulePlaybook, "playbook", "", "Playbook name to run")
	scheduleAddCmd.Flags().StringVar(&scheduleStart, "start", "", "First day the schedule may fire (YYYY-MM-DD)")
	scheduleAddCmd.Flags().StringVar(&scheduleEnd, "end", "", "Last day the schedule may fire (YYYY-MM-DD)")
	scheduleAddCmd.Flags().StringVar(&scheduleTime, "time", "", "Time of day to fire (HH:MM)")
	scheduleAddCmd.Flags().BoolVar(&scheduleRepeat, "repeat", false, "Repeat within the window")
	scheduleAddCmd.Flags().StringVar(&scheduleFrequency, "frequency", "", "Repeat cadence (daily|weekly|monthly)")
	scheduleAddCmd.MarkFlagRequired("playbook")
	scheduleAddCmd.MarkFlagRequired("start")
	scheduleAddCmd.MarkFlagRequired("end")
	scheduleAddCmd.MarkFlagRequired("time")

	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleDeleteCmd)
	scheduleCmd.AddCommand(scheduleWatchCmd)
}
