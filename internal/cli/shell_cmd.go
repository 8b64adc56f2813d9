package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/studybot/internal/notify"
)

func newShellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Chat with the planner in an interactive shell",
		Long: `Open a chat shell that accepts the same Korean or English commands as
the chat channels, such as "일정 조회" or "record progress 2024-03-04 Arrays".
Reminders fire inside the shell while it is open.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(commandContext(cmd), app)
		},
	}
}

func runShell(ctx context.Context, app *App) error {
	if app.Router == nil {
		return fmt.Errorf("chat router is not configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newShellModel(ctx, app), tea.WithContext(ctx))

	if app.Shell != nil {
		detach := app.Shell.Attach(notify.NotifierFunc(func(_ context.Context, n notify.Notification) error {
			program.Send(reminderMsg{n: n})
			return nil
		}))
		defer detach()
	}
	if err := startJobs(ctx, app); err != nil {
		return err
	}
	if app.Jobs != nil {
		defer app.Jobs.Stop()
	}

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running shell: %w", err)
	}
	return nil
}

// startJobs re-arms saved reminders and starts the job runner.
func startJobs(ctx context.Context, app *App) error {
	if app.Jobs == nil {
		return nil
	}
	if app.Reminders != nil {
		n, err := app.Reminders.Restore(ctx)
		if err != nil {
			return fmt.Errorf("restoring reminders: %w", err)
		}
		if app.Log != nil && n > 0 {
			app.Log.WithField("armed", n).Info("restored reminders")
		}
	}
	app.Jobs.Start()
	return nil
}
