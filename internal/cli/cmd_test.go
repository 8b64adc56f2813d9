package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/studybot/internal/chat"
	"github.com/alexanderramin/studybot/internal/config"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/notify"
	"github.com/alexanderramin/studybot/internal/repository"
	"github.com/alexanderramin/studybot/internal/service"
	"github.com/alexanderramin/studybot/internal/testutil"
)

var (
	kst = time.FixedZone("KST", 9*60*60)
	// Wednesday afternoon; the next Monday is 2024-03-04.
	testNow = time.Date(2024, 2, 28, 15, 0, 0, 0, kst)
)

type testEnv struct {
	app      *App
	store    *repository.JSONScheduleRepo
	jobs     *testutil.FakeJobs
	notifier *testutil.RecordingNotifier
}

// testApp wires a full App over a temp JSON schedule and an in-memory chat log.
func testApp(t *testing.T, topics ...string) testEnv {
	t.Helper()
	store := repository.NewJSONScheduleRepo(testutil.SchedulePath(t), testutil.QuietLogger())
	jobs := testutil.NewFakeJobs()
	notifier := &testutil.RecordingNotifier{}
	relay := &notify.Relay{}

	outline := ""
	if len(topics) > 0 {
		outline = testutil.WriteOutline(t, topics...)
	}
	opts := []service.Option{
		service.WithClock(testutil.FixedClock(testNow)),
		service.WithLocation(kst),
		service.WithLogger(testutil.QuietLogger()),
	}
	database := testutil.NewTestDB(t)

	reminders := service.NewReminderService(store, jobs, notify.Multi{notifier, relay}, opts...)
	schedules := service.NewScheduleService(store, outline, append(opts, service.WithReminderCanceller(reminders))...)
	chatLog := service.NewChatLogService(repository.NewSQLiteChatLogRepo(database), testutil.NewTestUoW(database), opts...)

	cfg := config.DefaultConfig()
	cfg.Timezone = "Asia/Seoul"

	app := &App{
		Config:    cfg,
		Schedules: schedules,
		Reminders: reminders,
		ChatLog:   chatLog,
		Router: chat.NewRouter(schedules, reminders, chatLog,
			chat.WithLogger(testutil.QuietLogger()),
			chat.WithClock(testutil.FixedClock(testNow)),
		),
		Jobs:     jobs,
		Shell:    relay,
		Log:      testutil.QuietLogger(),
		Location: kst,
		Now:      testutil.FixedClock(testNow),
	}
	return testEnv{app: app, store: store, jobs: jobs, notifier: notifier}
}

func (env testEnv) seed(t *testing.T, events ...domain.Event) {
	t.Helper()
	require.NoError(t, env.store.Save(context.Background(), events))
}

func (env testEnv) events(t *testing.T) []domain.Event {
	t.Helper()
	events, err := env.store.Load(context.Background())
	require.NoError(t, err)
	return events
}

// executeCmd runs the root command with args and returns combined output.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	return executeCmdWithInput(t, app, "", args...)
}

func executeCmdWithInput(t *testing.T, app *App, input string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCmd_ShowsHelpWhenNotInteractive(t *testing.T) {
	env := testApp(t)
	out, err := executeCmd(t, env.app)
	require.NoError(t, err)
	assert.Contains(t, out, "studybot turns a topic outline")
	assert.Contains(t, out, "serve")
}

func TestCreateCmd_Flags(t *testing.T) {
	env := testApp(t, "T1", "T2", "T3", "T4", "T5")

	out, err := executeCmd(t, env.app, "create", "--days", "mon,wed", "--time", "19:00", "--weeks", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 4 study sessions from 5 topics")
	assert.Contains(t, out, "2024-03-04")
	assert.Contains(t, out, "STUDY SCHEDULE")

	events := env.events(t)
	require.Len(t, events, 4)
	assert.Equal(t, []string{"T1", "T2"}, events[0].TaskNames())
}

func TestCreateCmd_FreeText(t *testing.T) {
	env := testApp(t, "T1", "T2", "T3")

	out, err := executeCmd(t, env.app, "create", "월", "수", "오후", "7시", "1주")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 2 study sessions from 3 topics")

	events := env.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, "19:00", events[0].StartTime)
}

func TestCreateCmd_DefaultsStartTimeFromConfig(t *testing.T) {
	env := testApp(t, "T1")
	env.app.Config.DefaultStartTime = "08:30"

	_, err := executeCmd(t, env.app, "create", "--days", "fri", "--weeks", "1")
	require.NoError(t, err)

	events := env.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, "08:30", events[0].StartTime)
}

func TestCreateCmd_RequiresDaysWithoutTerminal(t *testing.T) {
	env := testApp(t, "T1")
	_, err := executeCmd(t, env.app, "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--days and --weeks are required")
}

func TestCreateCmd_RejectsBadInput(t *testing.T) {
	env := testApp(t, "T1")
	_, err := executeCmd(t, env.app, "create", "--days", "someday", "--weeks", "1")
	require.Error(t, err)
	assert.True(t, service.IsInputError(err))
}

func TestViewCmd(t *testing.T) {
	env := testApp(t)

	out, err := executeCmd(t, env.app, "view")
	require.NoError(t, err)
	assert.Contains(t, out, "No schedule saved yet")

	env.seed(t, testutil.NewTestEvent("2024-03-04", []string{"Arrays", "Maps"}, testutil.WithDone("Arrays")))

	out, err = executeCmd(t, env.app, "view")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-04")
	assert.Contains(t, out, "월")
	assert.Contains(t, out, "In 5d")

	out, err = executeCmd(t, env.app, "view", "--date", "2024-03-04")
	require.NoError(t, err)
	assert.Contains(t, out, "✔ Arrays")
	assert.Contains(t, out, "○ Maps")
	assert.Contains(t, out, "50%")

	out, err = executeCmd(t, env.app, "ls", "--date", "2024-03-05")
	require.NoError(t, err)
	assert.Contains(t, out, "There is no schedule on 2024-03-05.")
}

func TestEditCmd(t *testing.T) {
	env := testApp(t)
	env.seed(t, testutil.NewTestEvent("2024-03-04", []string{"01-5 파이썬 둘러보기", "B"}))

	out, err := executeCmd(t, env.app, "edit", "2024-03-04", "01-5", "파이썬", "둘러보기", "--to", "2024-03-05", "--at", "20:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved '01-5 파이썬 둘러보기' from 2024-03-04 to 2024-03-05 at 20:00.")

	events := env.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, "2024-03-05", events[1].Date)
	assert.Equal(t, "20:00", events[1].StartTime)

	_, err = executeCmd(t, env.app, "edit", "2024-03-04")
	require.Error(t, err)
}

func TestDeleteCmd(t *testing.T) {
	env := testApp(t)
	env.seed(t,
		testutil.NewTestEvent("2024-03-04", []string{"A", "B"}),
		testutil.NewTestEvent("2024-03-06", []string{"C"}),
	)

	out, err := executeCmd(t, env.app, "delete", "2024-03-04", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 'A' from 2024-03-04.")

	out, err = executeCmd(t, env.app, "delete", "2024-03-09")
	require.NoError(t, err)
	assert.Contains(t, out, "There is no schedule on 2024-03-09.")

	out, err = executeCmd(t, env.app, "delete", "2024-03-06")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted the schedule on 2024-03-06.")
	assert.Len(t, env.events(t), 1)

	_, err = executeCmd(t, env.app, "delete")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "give a date to delete")
}

func TestDeleteCmd_AllNeedsConfirmation(t *testing.T) {
	env := testApp(t)
	env.seed(t, testutil.NewTestEvent("2024-03-04", []string{"A"}))

	_, err := executeCmd(t, env.app, "delete", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without --yes")
	assert.Len(t, env.events(t), 1)

	_, err = executeCmd(t, env.app, "delete", "--all", "2024-03-04")
	require.Error(t, err)

	out, err := executeCmd(t, env.app, "delete", "--all", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted the whole schedule (1 events).")
	assert.Empty(t, env.events(t))
}

func TestRemindCmd(t *testing.T) {
	env := testApp(t)
	env.seed(t,
		testutil.NewTestEvent("2024-03-04", []string{"A"}),
		testutil.NewTestEvent("2024-03-06", []string{"B"}),
	)

	out, err := executeCmd(t, env.app, "remind")
	require.NoError(t, err)
	assert.Contains(t, out, "Scheduled 2 reminders 1 hour(s) before each session.")
	assert.Contains(t, out, "fires 2024-03-04 18:00")
	assert.Contains(t, out, "studybot serve")
	assert.Len(t, env.jobs.Pending(), 2)

	events := env.events(t)
	assert.Equal(t, "18:00", events[0].ReminderTime)
}

func TestRemindCmd_OneDate(t *testing.T) {
	env := testApp(t)
	env.seed(t, testutil.NewTestEvent("2024-03-06", []string{"B"}))

	out, err := executeCmd(t, env.app, "remind", "2024-03-06", "--hours", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Reminder set for 2024-03-06 16:00.")

	out, err = executeCmd(t, env.app, "remind", "2024-03-07")
	require.NoError(t, err)
	assert.Contains(t, out, "There is no schedule on 2024-03-07.")
	assert.NotContains(t, out, "studybot serve")

	_, err = executeCmd(t, env.app, "remind", "--hours", "-1")
	require.Error(t, err)
}

func TestRemindCmd_UsesConfiguredHours(t *testing.T) {
	env := testApp(t)
	env.app.Config.ReminderHours = 2
	env.seed(t, testutil.NewTestEvent("2024-03-06", []string{"B"}))

	out, err := executeCmd(t, env.app, "remind", "2024-03-06")
	require.NoError(t, err)
	assert.Contains(t, out, "Reminder set for 2024-03-06 17:00.")
}

func TestRemindCmd_DeleteAllCancelsReminders(t *testing.T) {
	env := testApp(t)
	env.seed(t,
		testutil.NewTestEvent("2024-03-04", []string{"A"}),
		testutil.NewTestEvent("2024-03-06", []string{"B"}),
	)

	_, err := executeCmd(t, env.app, "remind")
	require.NoError(t, err)
	require.Len(t, env.jobs.Pending(), 2)

	_, err = executeCmd(t, env.app, "delete", "--all", "-y")
	require.NoError(t, err)
	assert.Empty(t, env.jobs.Pending())

	env.jobs.FireAll()
	assert.Empty(t, env.notifier.Sent())
}

func TestRemindCmd_RearmingWithNewHoursKeepsOneReminder(t *testing.T) {
	env := testApp(t)
	env.seed(t, testutil.NewTestEvent("2024-03-06", []string{"B"}))

	_, err := executeCmd(t, env.app, "remind", "--hours", "1")
	require.NoError(t, err)
	_, err = executeCmd(t, env.app, "remind", "--hours", "3")
	require.NoError(t, err)

	assert.Equal(t, "16:00", env.events(t)[0].ReminderTime)
	env.jobs.FireAll()
	require.Len(t, env.notifier.Sent(), 1)
	assert.Contains(t, env.notifier.Sent()[0].Text, "2024-03-06 16:00")
}

func TestProgressCmds(t *testing.T) {
	env := testApp(t)
	env.seed(t,
		testutil.NewTestEvent("2024-02-28", []string{"Today"}),
		testutil.NewTestEvent("2024-03-04", []string{"A", "B"}),
	)

	out, err := executeCmd(t, env.app, "progress", "record", "2024-03-04", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "Marked 'A' on 2024-03-04 complete. Progress: 50.00%")

	out, err = executeCmd(t, env.app, "progress", "record", "2024-03-04", "Z")
	require.NoError(t, err)
	assert.Contains(t, out, "'Z' is not scheduled on 2024-03-04.")

	out, err = executeCmd(t, env.app, "progress", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Overall")
	assert.Contains(t, out, "1/3 tasks")
	assert.Contains(t, out, "0/1 tasks")
}

func TestExportCmd(t *testing.T) {
	env := testApp(t)
	env.seed(t, testutil.NewTestEvent("2024-03-04", []string{"Arrays"}, testutil.WithReminder("2024-03-04", "18:00")))

	out, err := executeCmd(t, env.app, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "DTSTART:20240304T100000Z")
	assert.Contains(t, out, "DTEND:20240304T110000Z")
	assert.Contains(t, out, "TRIGGER:-PT1H")

	path := filepath.Join(t.TempDir(), "plan")
	out, err = executeCmd(t, env.app, "export", "--out", path, "--minutes", "90")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 events to "+path+".ics")

	data, err := os.ReadFile(path + ".ics")
	require.NoError(t, err)
	assert.Contains(t, string(data), "DTEND:20240304T113000Z")
}

func TestHistoryCmd(t *testing.T) {
	env := testApp(t)

	out, err := executeCmd(t, env.app, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversation recorded yet.")

	reply := env.app.Router.Handle(context.Background(), "c1", "일정 조회")
	require.Equal(t, "view", reply.Command)

	out, err = executeCmd(t, env.app, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "일정 조회")
	assert.Contains(t, out, "No schedule saved yet.")

	out, err = executeCmd(t, env.app, "history", "--session", reply.SessionID, "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "c1")

	env.app.ChatLog = nil
	_, err = executeCmd(t, env.app, "history")
	require.Error(t, err)
}

func TestHistoryCmd_ClearSession(t *testing.T) {
	env := testApp(t)
	keep := env.app.Router.Handle(context.Background(), "c1", "일정 조회")
	drop := env.app.Router.Handle(context.Background(), "c2", "show progress")

	_, err := executeCmd(t, env.app, "history", "--clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--session")

	out, err := executeCmd(t, env.app, "history", "--clear", "--session", drop.SessionID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared chat session "+drop.SessionID)

	out, err = executeCmd(t, env.app, "history", "--session", drop.SessionID)
	require.NoError(t, err)
	assert.Contains(t, out, "No conversation recorded yet.")

	out, err = executeCmd(t, env.app, "history", "--session", keep.SessionID)
	require.NoError(t, err)
	assert.Contains(t, out, "일정 조회")
}

type sentReminders []notify.Notification

func (s sentReminders) Recent(_ context.Context, limit int) ([]notify.Notification, error) {
	if limit < len(s) {
		return s[:limit], nil
	}
	return s, nil
}

func TestHistoryCmd_Reminders(t *testing.T) {
	env := testApp(t)

	_, err := executeCmd(t, env.app, "history", "--reminders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")

	env.app.SentReminders = sentReminders{}
	out, err := executeCmd(t, env.app, "history", "--reminders")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders delivered yet.")

	env.app.SentReminders = sentReminders{
		{Date: "2024-03-06", FireAt: time.Date(2024, 3, 6, 18, 0, 0, 0, kst), Text: "📅 Reminder: 2024-03-06 18:00 - 학습 계획: B"},
		{Date: "2024-03-04", FireAt: time.Date(2024, 3, 4, 18, 0, 0, 0, kst), Text: "📅 Reminder: 2024-03-04 18:00 - 학습 계획: A"},
	}
	out, err = executeCmd(t, env.app, "history", "--reminders", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-06")
	assert.NotContains(t, out, "2024-03-04")
}

func TestServeCmd_AnswersStdinAndManagesJobs(t *testing.T) {
	env := testApp(t)
	env.seed(t, testutil.NewTestEvent("2024-03-04", []string{"A"}, testutil.WithReminder("2024-03-04", "18:00")))

	out, err := executeCmdWithInput(t, env.app, "일정 조회\n\nshow progress\n", "serve", "--stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "studybot is running")
	assert.Contains(t, out, "- 2024-03-04 19:00: A [0%]")
	assert.Contains(t, out, "overall: 0.00% (0/1)")

	started, stopped := env.jobs.Lifecycle()
	assert.True(t, started)
	assert.True(t, stopped)

	// Restore re-armed the saved reminder.
	assert.Len(t, env.jobs.Pending(), 1)
	assert.True(t, env.jobs.RunEvery(env.app.Config.ResyncCron))

	env.jobs.FireAll()
	sent := env.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "A")
}

func TestServe_PrintsFiredReminders(t *testing.T) {
	env := testApp(t)
	env.seed(t, testutil.NewTestEvent("2024-03-04", []string{"Arrays"}, testutil.WithReminder("2024-03-04", "18:00")))

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- serve(ctx, env.app, strings.NewReader(""), &out, false) }()

	require.Eventually(t, func() bool {
		started, _ := env.jobs.Lifecycle()
		return started
	}, time.Second, 5*time.Millisecond)
	env.jobs.FireAll()
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, out.String(), "📅 Reminder: 2024-03-04 18:00 - 학습 계획: Arrays")
	require.Len(t, env.notifier.Sent(), 1)

	// The relay is detached once serve returns.
	require.NoError(t, env.app.Shell.Notify(context.Background(), env.notifier.Sent()[0]))
	assert.Equal(t, 1, strings.Count(out.String(), "📅 Reminder"))
}

func TestServe_SerializesRepliesAndReminders(t *testing.T) {
	env := testApp(t)
	pr, pw := io.Pipe()
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), env.app, pr, &out, true) }()

	require.Eventually(t, func() bool {
		started, _ := env.jobs.Lifecycle()
		return started
	}, time.Second, 5*time.Millisecond)

	n := notify.Notification{Date: "2024-03-04", Text: "📅 Reminder: 2024-03-04 18:00 - 학습 계획: A"}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_ = env.app.Shell.Notify(context.Background(), n)
		}
	}()
	for i := 0; i < 20; i++ {
		_, err := io.WriteString(pw, "show progress\n")
		require.NoError(t, err)
	}
	wg.Wait()
	require.NoError(t, pw.Close())
	require.NoError(t, <-done)

	reminders := 0
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "Reminder") {
			assert.Equal(t, n.Text, line)
			reminders++
		}
	}
	assert.Equal(t, 20, reminders)
}

func TestLockedWriter_ConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	w := &lockedWriter{w: &buf}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				fmt.Fprintf(w, "writer-%d line-%02d\n", g, i)
			}
		}(g)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 400)
	for _, line := range lines {
		assert.Regexp(t, `^writer-\d line-\d{2}$`, line)
	}
}

func TestServe_StopsJobsOnCancel(t *testing.T) {
	env := testApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- serve(ctx, env.app, strings.NewReader(""), &out, false) }()

	require.Eventually(t, func() bool {
		started, _ := env.jobs.Lifecycle()
		return started
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	_, stopped := env.jobs.Lifecycle()
	assert.True(t, stopped)
}

func TestServe_NeedsJobRunner(t *testing.T) {
	env := testApp(t)
	env.app.Jobs = nil
	err := serve(context.Background(), env.app, strings.NewReader(""), new(bytes.Buffer), false)
	require.Error(t, err)
}
