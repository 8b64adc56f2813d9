package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/studybot/internal/cli/formatter"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/export"
)

func newExportCmd(app *App) *cobra.Command {
	var out string
	var minutes int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the schedule as an iCalendar (.ics) file",
		Example: `  studybot export --out study.ics
  studybot export > study.ics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := app.Schedules.List(commandContext(cmd))
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("minutes") && app.Config != nil {
				minutes = app.Config.SessionMinutes
			}

			ics, skipped := export.ICS(events, export.Options{
				Location: app.location(),
				Session:  time.Duration(minutes) * time.Minute,
				Stamp:    app.now(),
			})
			for _, date := range skipped {
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.StyleYellow.Render("skipped unreadable event on "+date))
			}

			if out == "" || out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), ics)
				return err
			}
			if !strings.HasSuffix(out, ".ics") {
				out += ".ics"
			}
			if err := os.WriteFile(out, []byte(ics), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", len(events)-len(skipped), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; stdout when empty or -")
	cmd.Flags().IntVar(&minutes, "minutes", 60, "Session length in minutes")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var (
		limit     int
		sessionID string
		clearIt   bool
		reminders bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the recorded chat conversation or delivered reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			if reminders {
				if app.SentReminders == nil {
					return fmt.Errorf("no reminder sink keeps history, configure the redis notifier")
				}
				sent, err := app.SentReminders.Recent(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatSentReminders(sent))
				return nil
			}

			if app.ChatLog == nil {
				return fmt.Errorf("chat log is not configured")
			}
			if clearIt {
				if sessionID == "" {
					return fmt.Errorf("--clear needs --session")
				}
				if err := app.ChatLog.ClearSession(ctx, sessionID); err != nil {
					return err
				}
				fmt.Fprintln(out, formatter.StyleGreen.Render(fmt.Sprintf("Cleared chat session %s.", sessionID)))
				return nil
			}

			var (
				turns []*domain.ChatTurn
				err   error
			)
			if sessionID != "" {
				turns, err = app.ChatLog.SessionHistory(ctx, sessionID, limit)
			} else {
				turns, err = app.ChatLog.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatHistory(turns))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only show one chat session")
	cmd.Flags().BoolVar(&clearIt, "clear", false, "Delete the turns of --session")
	cmd.Flags().BoolVar(&reminders, "reminders", false, "Show delivered reminders instead of chat turns")
	return cmd
}
