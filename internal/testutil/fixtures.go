package testutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/studybot/internal/domain"
)

// Event options
type EventOption func(*domain.Event)

func WithStartTime(hhmm string) EventOption {
	return func(e *domain.Event) {
		e.StartTime = hhmm
	}
}

// WithDone marks the named tasks complete.
func WithDone(names ...string) EventOption {
	return func(e *domain.Event) {
		for _, n := range names {
			e.CompleteTask(n)
		}
	}
}

func WithReminder(date, hhmm string) EventOption {
	return func(e *domain.Event) {
		e.ReminderDate = date
		e.ReminderTime = hhmm
	}
}

// NewTestEvent builds an event at 19:00 on date holding the given tasks.
func NewTestEvent(date string, tasks []string, opts ...EventOption) domain.Event {
	ev := domain.Event{
		Date:      date,
		StartTime: "19:00",
	}
	for _, name := range tasks {
		ev.Tasks = append(ev.Tasks, domain.Task{Name: name})
	}
	for _, opt := range opts {
		opt(&ev)
	}
	ev.RecomputeProgress()
	return ev
}

// Chat turn options
type TurnOption func(*domain.ChatTurn)

func WithChannel(ch string) TurnOption {
	return func(t *domain.ChatTurn) {
		t.Channel = ch
	}
}

func WithCreatedAt(at time.Time) TurnOption {
	return func(t *domain.ChatTurn) {
		t.CreatedAt = at
	}
}

func NewTestTurn(sessionID string, role domain.ChatRole, msg string, opts ...TurnOption) *domain.ChatTurn {
	turn := &domain.ChatTurn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(turn)
	}
	return turn
}

// WriteOutline writes topics one per line into a temp file and returns its path.
func WriteOutline(t *testing.T, topics ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contents.txt")
	if err := os.WriteFile(path, []byte(strings.Join(topics, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("writing outline: %v", err)
	}
	return path
}

// SchedulePath returns a not-yet-existing schedule file path in a temp dir.
func SchedulePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "calendar.json")
}

// QuietLogger returns a logger entry that discards output.
func QuietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// FixedClock returns a clock func that always reports at.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
