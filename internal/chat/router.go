// Package chat routes free-text chat messages to the schedule and reminder
// services and keeps per-channel conversation state.
package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/studybot/internal/contract"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/planner"
	"github.com/alexanderramin/studybot/internal/service"
)

// Reply is the answer to one message.
type Reply struct {
	SessionID string
	// Command names the handler that answered, "help" for unmatched text.
	Command string
	Text    string
}

type handlerFunc func(ctx context.Context, s *Session, args string) (string, error)

type command struct {
	name     string
	keywords []string
	usage    string
	handle   handlerFunc
}

// Router dispatches messages by keyword. It is safe for concurrent use.
type Router struct {
	schedules service.ScheduleService
	reminders service.ReminderService
	chatLog   service.ChatLogService

	log           *logrus.Entry
	now           func() time.Time
	reminderHours int
	commands      []command

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Router)

func WithLogger(log *logrus.Entry) Option {
	return func(r *Router) { r.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithReminderHours sets the offset used when a reminder command names none.
func WithReminderHours(h int) Option {
	return func(r *Router) { r.reminderHours = h }
}

// NewRouter builds a router. chatLog may be nil, in which case exchanges are
// only kept in session memory.
func NewRouter(schedules service.ScheduleService, reminders service.ReminderService, chatLog service.ChatLogService, opts ...Option) *Router {
	r := &Router{
		schedules:     schedules,
		reminders:     reminders,
		chatLog:       chatLog,
		now:           time.Now,
		reminderHours: contract.DefaultReminderHours,
		sessions:      make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.NewEntry(logrus.StandardLogger())
	}
	r.log = r.log.WithField("component", "chat_router")

	// Longer phrases come first so "일정 전체 삭제" wins over "일정 삭제".
	r.commands = []command{
		{name: "create", keywords: []string{"일정 생성", "create schedule"}, handle: r.startCreate},
		{name: "view", keywords: []string{"일정 조회", "주차 일정", "view schedule"}, handle: r.view},
		{name: "edit", keywords: []string{"일정 수정", "edit schedule"}, usage: editUsage, handle: r.edit},
		{name: "delete-all", keywords: []string{"일정 전체 삭제", "delete all schedules"}, handle: r.startDeleteAll},
		{name: "delete", keywords: []string{"일정 삭제", "delete schedule"}, usage: deleteUsage, handle: r.delete},
		{name: "remind-all", keywords: []string{"리마인더 예약 전체", "remind all"}, usage: remindUsage, handle: r.remindAll},
		{name: "remind", keywords: []string{"리마인더 예약", "remind"}, usage: remindUsage, handle: r.remindDate},
		{name: "progress-record", keywords: []string{"진행률 입력", "record progress"}, usage: progressUsage, handle: r.recordProgress},
		{name: "progress-show", keywords: []string{"진행률 보기", "show progress"}, handle: r.showProgress},
		{name: "help", keywords: []string{"도움말", "help"}, handle: r.help},
	}
	return r
}

// Session returns the session for channel, creating it on first use.
func (r *Router) Session(channel string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[channel]
	if !ok {
		s = newSession(channel)
		r.sessions[channel] = s
	}
	return s
}

// Handle answers one message from channel. Handler failures become
// "Error: ..." replies; Handle itself never fails.
func (r *Router) Handle(ctx context.Context, channel, text string) Reply {
	s := r.Session(channel)
	s.mu.Lock()
	defer s.mu.Unlock()

	text = strings.TrimSpace(text)
	at := r.now()
	s.remember(domain.RoleUser, text, at)

	name, answer := r.dispatch(ctx, s, text)
	s.remember(domain.RoleAssistant, answer, r.now())

	if r.chatLog != nil {
		err := r.chatLog.RecordExchange(ctx, service.Exchange{
			SessionID: s.ID,
			Channel:   channel,
			User:      text,
			Assistant: answer,
			At:        at,
		})
		if err != nil {
			r.log.WithError(err).WithField("session_id", s.ID).Warn("failed to record chat exchange")
		}
	}
	return Reply{SessionID: s.ID, Command: name, Text: answer}
}

func (r *Router) dispatch(ctx context.Context, s *Session, text string) (string, string) {
	switch s.pending {
	case PendingCreate:
		return "create", r.run(ctx, s, command{name: "create", usage: createPrompt, handle: r.finishCreate}, text)
	case PendingDeleteAll:
		return "delete-all", r.run(ctx, s, command{name: "delete-all", handle: r.finishDeleteAll}, text)
	}

	if cmd, end, ok := r.match(text); ok {
		return cmd.name, r.run(ctx, s, cmd, strings.TrimSpace(text[end:]))
	}
	return "help", helpText
}

// match picks the command for text and returns the byte offset where its
// arguments start. A keyword that opens the message wins over one found
// later in it, so task names cannot take over the command.
func (r *Router) match(text string) (command, int, bool) {
	for _, cmd := range r.commands {
		for _, kw := range cmd.keywords {
			if end, ok := foldPrefix(text, kw); ok {
				return cmd, end, true
			}
		}
	}
	for _, cmd := range r.commands {
		for _, kw := range cmd.keywords {
			if end, ok := foldIndex(text, kw); ok {
				return cmd, end, true
			}
		}
	}
	return command{}, 0, false
}

// run calls the handler and turns errors and panics into an error reply.
func (r *Router) run(ctx context.Context, s *Session, cmd command, args string) (answer string) {
	log := r.log.WithFields(logrus.Fields{"command": cmd.name, "session_id": s.ID})
	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", p).Error("command handler panicked")
			answer = fmt.Sprintf("Error: %s failed unexpectedly.", cmd.name)
		}
	}()

	out, err := cmd.handle(ctx, s, args)
	if err == nil {
		return out
	}
	if service.IsInputError(err) {
		log.WithError(err).Info("rejected command input")
		if cmd.usage != "" {
			return fmt.Sprintf("Error: %v\n%s", err, cmd.usage)
		}
	} else {
		log.WithError(err).Error("command failed")
	}
	return fmt.Sprintf("Error: %v", err)
}

// foldPrefix reports whether text starts with kw ignoring case and returns
// the byte offset in text just past it.
func foldPrefix(text, kw string) (int, bool) {
	end, ok := window(text, 0, utf8.RuneCountInString(kw))
	if !ok || !strings.EqualFold(text[:end], kw) {
		return 0, false
	}
	return end, true
}

// foldIndex finds the first case-insensitive occurrence of kw in text and
// returns the byte offset in text just past it.
func foldIndex(text, kw string) (int, bool) {
	n := utf8.RuneCountInString(kw)
	for start := range text {
		end, ok := window(text, start, n)
		if !ok {
			return 0, false
		}
		if strings.EqualFold(text[start:end], kw) {
			return end, true
		}
	}
	return 0, false
}

// window returns the byte offset n runes after start.
func window(text string, start, n int) (int, bool) {
	end := start
	for i := 0; i < n; i++ {
		if end >= len(text) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return end, true
}

func inputErr(format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), service.ErrInvalidInput)
}

func (r *Router) startCreate(_ context.Context, s *Session, _ string) (string, error) {
	s.pending = PendingCreate
	return createPrompt, nil
}

func (r *Router) finishCreate(ctx context.Context, s *Session, text string) (string, error) {
	if isCancel(text) {
		s.pending = PendingNone
		return "Schedule creation cancelled.", nil
	}
	plan, err := planner.ParseInput(text)
	if err != nil {
		return "", err
	}
	s.pending = PendingNone

	days := make([]string, len(plan.Days))
	for i, d := range plan.Days {
		days[i] = strings.ToLower(d.String())
	}
	resp, err := r.schedules.Create(ctx, contract.GenerateRequest{
		Days:      days,
		StartTime: plan.StartTime,
		Weeks:     plan.Weeks,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Events) == 0 {
		return resp.Message, nil
	}
	return resp.Message + "\n" + FormatSchedule(resp.Events), nil
}

func (r *Router) view(ctx context.Context, _ *Session, _ string) (string, error) {
	events, err := r.schedules.List(ctx)
	if err != nil {
		return "", err
	}
	return FormatSchedule(events), nil
}

func (r *Router) edit(ctx context.Context, _ *Session, args string) (string, error) {
	parts := strings.Fields(args)
	if len(parts) < 4 {
		return "", inputErr("edit needs a date, a task, a new date and a new time")
	}
	res, err := r.schedules.Update(ctx, contract.UpdateRequest{
		Date:    parts[0],
		Task:    strings.Join(parts[1:len(parts)-2], " "),
		NewDate: parts[len(parts)-2],
		NewTime: parts[len(parts)-1],
	})
	if err != nil {
		return "", err
	}
	return "✅ " + res.Message, nil
}

func (r *Router) startDeleteAll(_ context.Context, s *Session, _ string) (string, error) {
	s.pending = PendingDeleteAll
	return deleteAllPrompt, nil
}

func (r *Router) finishDeleteAll(ctx context.Context, s *Session, text string) (string, error) {
	s.pending = PendingNone
	if !isConfirm(text) {
		return "❌ Deleting the whole schedule was cancelled.", nil
	}
	res, err := r.schedules.Delete(ctx, contract.DeleteRequest{All: true})
	if err != nil {
		return "", err
	}
	return "🗑️ " + res.Message, nil
}

func (r *Router) delete(ctx context.Context, _ *Session, args string) (string, error) {
	date, task, _ := strings.Cut(args, " ")
	if date == "" {
		return "", inputErr("delete needs a date")
	}
	res, err := r.schedules.Delete(ctx, contract.DeleteRequest{Date: date, Task: strings.TrimSpace(task)})
	if err != nil {
		return "", err
	}
	if !res.Found {
		return res.Message, nil
	}
	return "🗑️ " + res.Message, nil
}

func (r *Router) remindAll(ctx context.Context, _ *Session, args string) (string, error) {
	hours, err := r.hours(args)
	if err != nil {
		return "", err
	}
	res, err := r.reminders.ScheduleAll(ctx, contract.ReminderRequest{HoursBefore: hours})
	if err != nil {
		return "", err
	}
	return FormatReminders(res), nil
}

func (r *Router) remindDate(ctx context.Context, _ *Session, args string) (string, error) {
	date, rest, _ := strings.Cut(args, " ")
	if date == "" {
		return "", inputErr("a reminder needs a date or 전체/all")
	}
	hours, err := r.hours(rest)
	if err != nil {
		return "", err
	}
	res, err := r.reminders.ScheduleDate(ctx, contract.ReminderRequest{Date: date, HoursBefore: hours})
	if err != nil {
		return "", err
	}
	return FormatReminders(res), nil
}

// hours reads an optional hour count, defaulting to the configured offset.
func (r *Router) hours(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return r.reminderHours, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, inputErr("%q is not a number of hours", s)
	}
	return n, nil
}

func (r *Router) recordProgress(ctx context.Context, _ *Session, args string) (string, error) {
	date, task, _ := strings.Cut(args, " ")
	task = strings.TrimSpace(task)
	if date == "" || task == "" {
		return "", inputErr("recording progress needs a date and a task")
	}
	res, err := r.schedules.RecordProgress(ctx, contract.ProgressRequest{Date: date, Task: task})
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func (r *Router) showProgress(ctx context.Context, _ *Session, _ string) (string, error) {
	ov, err := r.schedules.ViewProgress(ctx)
	if err != nil {
		return "", err
	}
	return FormatProgress(ov), nil
}

func (r *Router) help(context.Context, *Session, string) (string, error) {
	return helpText, nil
}

func isConfirm(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "예", "네", "yes", "y":
		return true
	}
	return false
}

func isCancel(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "취소", "cancel":
		return true
	}
	return false
}

