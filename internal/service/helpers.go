package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/planner"
)

// ErrInvalidInput marks malformed requests: bad dates, times or counts.
var ErrInvalidInput = errors.New("invalid input")

type options struct {
	now      func() time.Time
	loc      *time.Location
	log      *logrus.Entry
	observer UseCaseObserver
	reminder ReminderCanceller
}

// Option customizes a service.
type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

func WithObserver(obs UseCaseObserver) Option {
	return func(o *options) { o.observer = obs }
}

// WithReminderCanceller lets schedule mutations drop reminders whose event
// was deleted or moved away.
func WithReminderCanceller(c ReminderCanceller) Option {
	return func(o *options) { o.reminder = c }
}

func buildOptions(component string, opts []Option) options {
	o := options{
		now:      time.Now,
		loc:      time.Local,
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if o.observer == nil {
		o.observer = NoopUseCaseObserver{}
	}
	o.log = o.log.WithField("component", component)
	return o
}

// staleReminders lists dates whose stored reminder in before no longer
// exists unchanged in after.
func staleReminders(before, after []domain.Event) []string {
	kept := make(map[string]domain.Event, len(after))
	for _, ev := range after {
		kept[ev.Date] = ev
	}
	var stale []string
	for _, ev := range before {
		if !ev.HasReminder() {
			continue
		}
		cur, ok := kept[ev.Date]
		if !ok || cur.ReminderDate != ev.ReminderDate || cur.ReminderTime != ev.ReminderTime {
			stale = append(stale, ev.Date)
		}
	}
	return stale
}

// parseDate validates a YYYY-MM-DD date and returns it unchanged.
func parseDate(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		return "", fmt.Errorf("%s %q is not a YYYY-MM-DD date: %w", field, s, ErrInvalidInput)
	}
	return s, nil
}

// parseClock validates a start time and returns it as HH:MM.
func parseClock(field, s string) (string, error) {
	clock, err := planner.ParseClock(s)
	if err != nil {
		return "", fmt.Errorf("%s %q is not an HH:MM time: %w", field, s, ErrInvalidInput)
	}
	return clock, nil
}

// eventTime combines an event's date and start time in loc.
func eventTime(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(domain.DateLayout+" "+domain.TimeLayout, date+" "+clock, loc)
}

// dropEmpty removes the event on date if it has no tasks left.
func dropEmpty(events []domain.Event, date string) []domain.Event {
	out := events[:0]
	for _, ev := range events {
		if ev.Date == date && len(ev.Tasks) == 0 {
			continue
		}
		out = append(out, ev)
	}
	return out
}
