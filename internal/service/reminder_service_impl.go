package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/studybot/internal/contract"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/notify"
	"github.com/alexanderramin/studybot/internal/repository"
)

const notifyTimeout = 30 * time.Second

type reminderService struct {
	store    repository.ScheduleRepo
	jobs     JobScheduler
	notifier notify.Notifier
	opts     options

	mu    sync.Mutex
	armed map[string]string // event date -> job key
}

func NewReminderService(store repository.ScheduleRepo, jobs JobScheduler, notifier notify.Notifier, opts ...Option) ReminderService {
	return &reminderService{
		store:    store,
		jobs:     jobs,
		notifier: notifier,
		opts:     buildOptions("reminder_service", opts),
		armed:    make(map[string]string),
	}
}

func (s *reminderService) ScheduleAll(ctx context.Context, req contract.ReminderRequest) (res *contract.ReminderResult, err error) {
	fields := map[string]any{"hours_before": req.HoursBefore}
	defer observe(ctx, s.opts.observer, "schedule-all-reminders", time.Now(), fields, &err)

	if req.HoursBefore < 0 {
		return nil, fmt.Errorf("hours before must not be negative, got %d: %w", req.HoursBefore, ErrInvalidInput)
	}

	res, err = s.schedule(ctx, "", req.HoursBefore)
	if err != nil {
		return nil, err
	}
	switch {
	case !res.Found:
		res.Message = "There is no schedule to remind you about."
	case len(res.Scheduled) == 0:
		res.Message = fmt.Sprintf("No reminders were scheduled, %d sessions are already past their reminder time.", len(res.Skipped))
	default:
		res.Message = fmt.Sprintf("Scheduled %d reminders %d hour(s) before each session.", len(res.Scheduled), req.HoursBefore)
		if len(res.Skipped) > 0 {
			res.Message += fmt.Sprintf(" Skipped %d past sessions.", len(res.Skipped))
		}
	}
	fields["scheduled"] = len(res.Scheduled)
	return res, nil
}

func (s *reminderService) ScheduleDate(ctx context.Context, req contract.ReminderRequest) (res *contract.ReminderResult, err error) {
	fields := map[string]any{"date": req.Date, "hours_before": req.HoursBefore}
	defer observe(ctx, s.opts.observer, "schedule-reminder", time.Now(), fields, &err)

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if req.HoursBefore < 0 {
		return nil, fmt.Errorf("hours before must not be negative, got %d: %w", req.HoursBefore, ErrInvalidInput)
	}

	res, err = s.schedule(ctx, date, req.HoursBefore)
	if err != nil {
		return nil, err
	}
	switch {
	case !res.Found:
		res.Message = fmt.Sprintf("There is no schedule on %s.", date)
	case len(res.Scheduled) == 0:
		res.Message = fmt.Sprintf("The reminder time for %s has already passed.", date)
	default:
		res.Message = fmt.Sprintf("Reminder set for %s.", res.Scheduled[0].FireAt.Format("2006-01-02 15:04"))
	}
	return res, nil
}

// schedule arms reminders for every event, or only the event on date.
func (s *reminderService) schedule(ctx context.Context, date string, hoursBefore int) (*contract.ReminderResult, error) {
	res := &contract.ReminderResult{}
	offset := time.Duration(hoursBefore) * time.Hour
	now := s.opts.now()

	err := s.store.Mutate(ctx, func(events []domain.Event) ([]domain.Event, error) {
		events = domain.Coalesce(events)
		changed := false

		for i := range events {
			ev := &events[i]
			if date != "" && ev.Date != date {
				continue
			}
			res.Found = true

			start, err := eventTime(ev.Date, ev.StartTime, s.opts.loc)
			if err != nil {
				s.opts.log.WithError(err).WithField("date", ev.Date).Warn("event has an unreadable start time, no reminder scheduled")
				res.Skipped = append(res.Skipped, contract.SkippedReminder{Date: ev.Date, Reason: "unreadable start time"})
				continue
			}
			fire := start.Add(-offset)
			if !fire.After(now) {
				s.opts.log.WithFields(logrus.Fields{"date": ev.Date, "fire_at": fire.Format(time.RFC3339)}).
					Info("reminder time already passed, skipping")
				res.Skipped = append(res.Skipped, contract.SkippedReminder{Date: ev.Date, FireAt: fire, Reason: "reminder time has passed"})
				continue
			}

			ev.ReminderDate = fire.Format(domain.DateLayout)
			ev.ReminderTime = fire.Format(domain.TimeLayout)
			s.arm(*ev, fire)
			changed = true
			res.Scheduled = append(res.Scheduled, contract.ScheduledReminder{Date: ev.Date, FireAt: fire})
		}

		if !changed {
			return nil, repository.ErrNoChange
		}
		return events, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling reminders: %w", err)
	}
	return res, nil
}

func (s *reminderService) Restore(ctx context.Context) (armed int, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.opts.observer, "restore-reminders", time.Now(), fields, &err)

	events, err := s.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading schedule: %w", err)
	}

	now := s.opts.now()
	wanted := make(map[string]string)
	for _, ev := range domain.Coalesce(events) {
		if !ev.HasReminder() {
			continue
		}
		fire, err := eventTime(ev.ReminderDate, ev.ReminderTime, s.opts.loc)
		if err != nil {
			s.opts.log.WithError(err).WithField("date", ev.Date).Warn("stored reminder time is unreadable")
			continue
		}
		wanted[ev.Date] = reminderKey(ev.Date, fire)
		if !fire.After(now) {
			continue
		}
		if s.arm(ev, fire) {
			armed++
		}
	}

	// Another process may have deleted or moved events since they were armed.
	dropped := 0
	for date, key := range s.armedKeys() {
		if wanted[date] != key && s.cancel(date, key) {
			dropped++
		}
	}
	fields["armed"] = armed
	fields["cancelled"] = dropped
	return armed, nil
}

// Cancel drops the job armed for the event on date.
func (s *reminderService) Cancel(date string) bool {
	return s.cancel(date, "")
}

// cancel drops the date's job, only when it is still key if key is set.
func (s *reminderService) cancel(date, key string) bool {
	s.mu.Lock()
	armed, ok := s.armed[date]
	if !ok || (key != "" && armed != key) {
		s.mu.Unlock()
		return false
	}
	delete(s.armed, date)
	s.mu.Unlock()

	cancelled := s.jobs.Cancel(armed)
	if cancelled {
		s.opts.log.WithField("date", date).Info("reminder cancelled")
	}
	return cancelled
}

func (s *reminderService) armedKeys() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make(map[string]string, len(s.armed))
	for d, k := range s.armed {
		keys[d] = k
	}
	return keys
}

// arm registers the delivery job for a snapshot of ev. An earlier job for
// the same date with a different fire time is cancelled first, so a date
// never has more than one reminder armed.
func (s *reminderService) arm(ev domain.Event, fire time.Time) bool {
	snapshot := ev
	snapshot.Tasks = append([]domain.Task(nil), ev.Tasks...)
	key := reminderKey(snapshot.Date, fire)

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.armed[snapshot.Date]; ok && prev != key {
		s.jobs.Cancel(prev)
		s.opts.log.WithField("date", snapshot.Date).Info("replacing previously armed reminder")
	}
	s.armed[snapshot.Date] = key

	return s.jobs.ScheduleOnce(key, fire, func() {
		s.forget(snapshot.Date, key)
		n := notify.Notification{
			Date:   snapshot.Date,
			FireAt: fire,
			Text:   notify.ReminderText(snapshot.ReminderDate, snapshot.ReminderTime, repository.EncodeSummary(snapshot.Tasks)),
		}
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.opts.log.WithError(err).WithField("date", snapshot.Date).Error("reminder delivery failed")
			return
		}
		s.opts.log.WithField("date", snapshot.Date).Info("reminder delivered")
	})
}

// forget clears the date's entry once its job has fired.
func (s *reminderService) forget(date, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed[date] == key {
		delete(s.armed, date)
	}
}

func reminderKey(date string, fire time.Time) string {
	return strings.Join([]string{date, fire.Format(time.RFC3339)}, "|")
}
