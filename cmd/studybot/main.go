package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alexanderramin/studybot/internal/chat"
	"github.com/alexanderramin/studybot/internal/cli"
	"github.com/alexanderramin/studybot/internal/config"
	"github.com/alexanderramin/studybot/internal/db"
	"github.com/alexanderramin/studybot/internal/notify"
	"github.com/alexanderramin/studybot/internal/reminder"
	"github.com/alexanderramin/studybot/internal/repository"
	"github.com/alexanderramin/studybot/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(configPath(os.Args[1:]))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	log := logrus.NewEntry(logger).WithField("app", "studybot")

	if _, err := maxprocs.Set(maxprocs.Logger(logger.Debugf)); err != nil {
		return fmt.Errorf("error setting GOMAXPROCS %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.ChatDBPath())
	if err != nil {
		return fmt.Errorf("opening chat log: %w", err)
	}
	defer database.Close()

	store := repository.NewJSONScheduleRepo(cfg.CalendarPath(), log)
	uow := db.NewSQLiteUnitOfWork(database)

	shell := &notify.Relay{}
	notifier, err := buildNotifier(ctx, cfg, log, shell)
	if err != nil {
		return err
	}
	jobs := reminder.NewScheduler(loc, log)

	opts := []service.Option{
		service.WithLocation(loc),
		service.WithLogger(log),
		service.WithObserver(service.NewLogUseCaseObserver(log)),
	}
	reminders := service.NewReminderService(store, jobs, notifier, opts...)
	schedules := service.NewScheduleService(store, cfg.ContentsPath(),
		append(opts, service.WithReminderCanceller(reminders))...)
	chatLog := service.NewChatLogService(repository.NewSQLiteChatLogRepo(database), uow, opts...)

	app := &cli.App{
		Config:    cfg,
		Schedules: schedules,
		Reminders: reminders,
		ChatLog:   chatLog,
		Router: chat.NewRouter(schedules, reminders, chatLog,
			chat.WithLogger(log),
			chat.WithReminderHours(cfg.ReminderHours),
		),
		Jobs:          jobs,
		Shell:         shell,
		SentReminders: notify.FindHistory(notifier),
		Log:           log,
		Location:      loc,
	}

	// Forms and the chat shell need a terminal on stdin.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// configPath finds --config before cobra runs, since the config decides how
// every command is wired.
func configPath(args []string) string {
	fs := pflag.NewFlagSet("studybot", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	path := fs.String("config", config.DefaultPath(), "")
	_ = fs.Parse(args)
	return *path
}

// buildNotifier fans reminders out to every configured sink plus the shell relay.
func buildNotifier(ctx context.Context, cfg *config.Config, log *logrus.Entry, shell *notify.Relay) (notify.Notifier, error) {
	targets := notify.Multi{shell}
	for _, kind := range cfg.Notifier.Kinds {
		switch kind {
		case config.NotifierLog:
			targets = append(targets, &notify.LogNotifier{Log: log.WithField("component", "notifier")})
		case config.NotifierSNS:
			sns, err := notify.NewSNSNotifier(ctx, cfg.Notifier.SNSTopicARN, log)
			if err != nil {
				return nil, err
			}
			targets = append(targets, sns)
		case config.NotifierRedis:
			targets = append(targets, notify.NewRedisNotifier(notify.RedisOptions{
				Addr:     cfg.Notifier.Redis.Addr,
				Password: cfg.Notifier.Redis.Password,
				DB:       cfg.Notifier.Redis.DB,
				Channel:  cfg.Notifier.Redis.Channel,
			}))
		}
	}
	return targets, nil
}
