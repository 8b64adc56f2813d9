package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/studybot/internal/cli/formatter"
	"github.com/alexanderramin/studybot/internal/contract"
)

func newRemindCmd(app *App) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "remind [DATE]",
		Short: "Schedule reminders before study sessions",
		Long: `Schedule a reminder HOURS before the session on DATE, or before every
session when DATE is omitted. Reminders are persisted and delivered by
'studybot serve' or an open shell.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("hours") && app.Config != nil {
				hours = app.Config.ReminderHours
			}
			req := contract.ReminderRequest{HoursBefore: hours}

			var (
				res *contract.ReminderResult
				err error
			)
			if len(args) == 1 {
				req.Date = args[0]
				res, err = app.Reminders.ScheduleDate(commandContext(cmd), req)
			} else {
				res, err = app.Reminders.ScheduleAll(commandContext(cmd), req)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatReminderResult(res))
			if len(res.Scheduled) > 0 {
				fmt.Fprintln(out, formatter.Dim("Keep 'studybot serve' running to receive them."))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", contract.DefaultReminderHours, "Hours before the session")
	return cmd
}

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Record and show study progress",
	}
	cmd.AddCommand(newProgressRecordCmd(app), newProgressShowCmd(app))
	return cmd
}

func newProgressRecordCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "record DATE TASK",
		Short:   "Mark a task complete",
		Example: `  studybot progress record 2024-03-04 Arrays`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Schedules.RecordProgress(commandContext(cmd), contract.ProgressRequest{
				Date: args[0],
				Task: strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			style := formatter.StyleGreen
			if !res.Found {
				style = formatter.StyleYellow
			}
			fmt.Fprintln(cmd.OutOrStdout(), style.Render(res.Message))
			return nil
		},
	}
}

func newProgressShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show overall and today's completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ov, err := app.Schedules.ViewProgress(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProgressOverview(ov))
			return nil
		},
	}
}
