package cli

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/studybot/internal/chat"
	"github.com/alexanderramin/studybot/internal/config"
	"github.com/alexanderramin/studybot/internal/notify"
	"github.com/alexanderramin/studybot/internal/service"
)

// JobRunner runs the reminder jobs armed by the reminder service.
type JobRunner interface {
	Start()
	Stop()
	Every(spec string, fn func()) error
}

// App holds references to everything the commands use.
type App struct {
	Config    *config.Config
	Schedules service.ScheduleService
	Reminders service.ReminderService
	ChatLog   service.ChatLogService
	Router    *chat.Router
	Jobs      JobRunner
	// Shell receives reminders while an interactive shell is open.
	Shell *notify.Relay
	// SentReminders is the delivered-reminder log, nil unless a sink keeps one.
	SentReminders notify.History
	Log   *logrus.Entry

	Location *time.Location
	Now      func() time.Time

	// IsInteractive reports whether stdin is a terminal. Forms and the
	// shell are only offered when it returns true.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now().In(a.location())
	}
	return time.Now().In(a.location())
}

func (a *App) location() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.Local
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// NewRootCmd creates the top-level "studybot" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "studybot",
		Short: "Study schedule planner with reminders",
		Long: `studybot turns a topic outline into a weekly study schedule,
tracks progress per session and reminds you before each one.
Run without arguments in a terminal to open the chat shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.interactive() {
				return runShell(commandContext(cmd), app)
			}
			return cmd.Help()
		},
	}
	root.PersistentFlags().String("config", config.DefaultPath(), "Path to the YAML config file")

	root.AddCommand(
		newCreateCmd(app),
		newViewCmd(app),
		newEditCmd(app),
		newDeleteCmd(app),
		newRemindCmd(app),
		newProgressCmd(app),
		newExportCmd(app),
		newHistoryCmd(app),
		newShellCmd(app),
		newServeCmd(app),
	)
	return root
}
