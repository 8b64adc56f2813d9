package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/studybot/internal/content"
	"github.com/alexanderramin/studybot/internal/contract"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/planner"
	"github.com/alexanderramin/studybot/internal/repository"
)

type scheduleService struct {
	store        repository.ScheduleRepo
	contentsPath string
	opts         options
}

// NewScheduleService builds the schedule mutators over store. contentsPath is
// the outline used when a create request names none.
func NewScheduleService(store repository.ScheduleRepo, contentsPath string, opts ...Option) ScheduleService {
	return &scheduleService{
		store:        store,
		contentsPath: contentsPath,
		opts:         buildOptions("schedule_service", opts),
	}
}

func (s *scheduleService) Create(ctx context.Context, req contract.GenerateRequest) (resp *contract.GenerateResponse, err error) {
	fields := map[string]any{"weeks": req.Weeks, "days": strings.Join(req.Days, ",")}
	defer observe(ctx, s.opts.observer, "create-schedule", time.Now(), fields, &err)

	path := domain.CoalesceStr(req.ContentsPath, s.contentsPath)
	topics, err := content.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading outline: %w", err)
	}

	days, err := planner.ParseDays(req.Days)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	events, err := planner.Generate(topics, days, req.StartTime, req.Weeks, s.opts.now(), s.opts.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	fields["topics"] = len(topics)
	fields["events"] = len(events)

	resp = &contract.GenerateResponse{Events: events, TopicCount: len(topics)}
	if len(events) == 0 {
		resp.Message = "The outline has no topics, nothing was scheduled."
		return resp, nil
	}

	err = s.mutate(ctx, func(current []domain.Event) ([]domain.Event, error) {
		if req.Replace {
			current = nil
		}
		return domain.Coalesce(append(current, events...)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("saving generated schedule: %w", err)
	}

	resp.Message = fmt.Sprintf("Created %d study sessions from %d topics, starting %s at %s.",
		len(events), len(topics), events[0].Date, events[0].StartTime)
	return resp, nil
}

// mutate saves fn's result and then cancels the reminders it made stale.
func (s *scheduleService) mutate(ctx context.Context, fn repository.MutateFunc) error {
	var stale []string
	err := s.store.Mutate(ctx, func(events []domain.Event) ([]domain.Event, error) {
		before := domain.Coalesce(events)
		next, err := fn(events)
		if err != nil {
			return nil, err
		}
		stale = staleReminders(before, next)
		return next, nil
	})
	if err != nil {
		return err
	}
	if s.opts.reminder == nil {
		return nil
	}
	for _, date := range stale {
		s.opts.reminder.Cancel(date)
	}
	return nil
}

func (s *scheduleService) List(ctx context.Context) ([]domain.Event, error) {
	events, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}
	events = domain.Coalesce(events)
	domain.SortEvents(events)
	return events, nil
}

func (s *scheduleService) Update(ctx context.Context, req contract.UpdateRequest) (res *contract.UpdateResult, err error) {
	fields := map[string]any{"date": req.Date, "task": req.Task}
	defer observe(ctx, s.opts.observer, "update-schedule", time.Now(), fields, &err)

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Task)
	if name == "" {
		return nil, fmt.Errorf("task name is required: %w", ErrInvalidInput)
	}
	target := date
	if strings.TrimSpace(req.NewDate) != "" {
		if target, err = parseDate("new date", req.NewDate); err != nil {
			return nil, err
		}
	}
	newTime := ""
	if strings.TrimSpace(req.NewTime) != "" {
		if newTime, err = parseClock("new time", req.NewTime); err != nil {
			return nil, err
		}
	}

	res = &contract.UpdateResult{TargetDate: target}
	err = s.mutate(ctx, func(events []domain.Event) ([]domain.Event, error) {
		events = domain.Coalesce(events)

		task := domain.Task{Name: name}
		removed := false
		if i := domain.FindEvent(events, date); i >= 0 {
			if t, ok := events[i].RemoveTask(name); ok {
				task, removed = t, true
			}
		}
		if !removed {
			s.opts.log.WithFields(logrus.Fields{"date": date, "task": name}).
				Info("task not found on date, adding it to the target instead")
		}

		ti := domain.FindEvent(events, target)
		if ti < 0 {
			events = append(events, domain.Event{
				Date:      target,
				StartTime: domain.CoalesceStr(newTime, domain.DefaultStartTime),
			})
			ti = len(events) - 1
		} else if newTime != "" {
			events[ti].StartTime = newTime
		}
		res.Duplicate = !events[ti].AddTask(task)
		res.StartTime = events[ti].StartTime

		switch {
		case removed && target != date:
			res.Outcome = contract.OutcomeMoved
		case removed:
			res.Outcome = contract.OutcomeRescheduled
		default:
			res.Outcome = contract.OutcomeAdded
		}
		res.Message = updateMessage(task.Name, date, res)

		return dropEmpty(events, date), nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating schedule: %w", err)
	}
	fields["outcome"] = string(res.Outcome)
	return res, nil
}

func updateMessage(task, from string, res *contract.UpdateResult) string {
	if res.Duplicate {
		return fmt.Sprintf("'%s' is already scheduled on %s at %s.", task, res.TargetDate, res.StartTime)
	}
	switch res.Outcome {
	case contract.OutcomeMoved:
		return fmt.Sprintf("Moved '%s' from %s to %s at %s.", task, from, res.TargetDate, res.StartTime)
	case contract.OutcomeRescheduled:
		return fmt.Sprintf("'%s' on %s now starts at %s.", task, res.TargetDate, res.StartTime)
	default:
		return fmt.Sprintf("'%s' was not on %s, added it to %s at %s.", task, from, res.TargetDate, res.StartTime)
	}
}

func (s *scheduleService) Delete(ctx context.Context, req contract.DeleteRequest) (res *contract.DeleteResult, err error) {
	fields := map[string]any{"date": req.Date, "task": req.Task, "all": req.All}
	defer observe(ctx, s.opts.observer, "delete-schedule", time.Now(), fields, &err)

	res = &contract.DeleteResult{}
	if req.All {
		err = s.mutate(ctx, func(events []domain.Event) ([]domain.Event, error) {
			res.Found = true
			res.Removed = len(domain.Coalesce(events))
			return []domain.Event{}, nil
		})
		if err != nil {
			return nil, fmt.Errorf("clearing schedule: %w", err)
		}
		res.Message = fmt.Sprintf("Deleted the whole schedule (%d events).", res.Removed)
		return res, nil
	}

	if strings.TrimSpace(req.Date) == "" {
		return nil, fmt.Errorf("a date is required unless deleting everything: %w", ErrInvalidInput)
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	task := strings.TrimSpace(req.Task)

	err = s.mutate(ctx, func(events []domain.Event) ([]domain.Event, error) {
		events = domain.Coalesce(events)
		i := domain.FindEvent(events, date)
		if i < 0 {
			res.Message = fmt.Sprintf("There is no schedule on %s.", date)
			return nil, repository.ErrNoChange
		}

		if task == "" {
			res.Found = true
			res.Removed = len(events[i].Tasks)
			res.Message = fmt.Sprintf("Deleted the schedule on %s.", date)
			return append(events[:i], events[i+1:]...), nil
		}

		removed, ok := events[i].RemoveTask(task)
		if !ok {
			res.Message = fmt.Sprintf("'%s' is not scheduled on %s.", task, date)
			return nil, repository.ErrNoChange
		}
		res.Found = true
		res.Removed = 1
		res.Message = fmt.Sprintf("Deleted '%s' from %s.", removed.Name, date)
		if len(events[i].Tasks) == 0 {
			res.Message += " No tasks were left, so the event was removed."
		}
		return dropEmpty(events, date), nil
	})
	if err != nil {
		return nil, fmt.Errorf("deleting from schedule: %w", err)
	}
	fields["found"] = res.Found
	return res, nil
}

func (s *scheduleService) RecordProgress(ctx context.Context, req contract.ProgressRequest) (res *contract.ProgressResult, err error) {
	fields := map[string]any{"date": req.Date, "task": req.Task}
	defer observe(ctx, s.opts.observer, "record-progress", time.Now(), fields, &err)

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	task := strings.TrimSpace(req.Task)
	if task == "" {
		return nil, fmt.Errorf("task name is required: %w", ErrInvalidInput)
	}

	res = &contract.ProgressResult{}
	err = s.mutate(ctx, func(events []domain.Event) ([]domain.Event, error) {
		events = domain.Coalesce(events)
		i := domain.FindEvent(events, date)
		if i < 0 {
			res.Message = fmt.Sprintf("There is no schedule on %s.", date)
			return nil, repository.ErrNoChange
		}

		found, changed := events[i].CompleteTask(task)
		if !found {
			res.Message = fmt.Sprintf("'%s' is not scheduled on %s.", task, date)
			return nil, repository.ErrNoChange
		}
		res.Found = true
		res.Changed = changed
		res.Progress = events[i].Progress
		if !changed {
			res.Message = fmt.Sprintf("'%s' on %s was already complete. Progress: %.2f%%", task, date, res.Progress)
			return nil, repository.ErrNoChange
		}
		res.Message = fmt.Sprintf("Marked '%s' on %s complete. Progress: %.2f%%", task, date, res.Progress)
		return events, nil
	})
	if err != nil {
		return nil, fmt.Errorf("recording progress: %w", err)
	}
	fields["found"] = res.Found
	return res, nil
}

func (s *scheduleService) ViewProgress(ctx context.Context) (*contract.ProgressOverview, error) {
	events, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}

	today := s.opts.now().In(s.opts.loc).Format(domain.DateLayout)
	ov := &contract.ProgressOverview{Empty: len(events) == 0, Today: today}
	for _, ev := range events {
		done, total := ev.Counts()
		ov.OverallDone += done
		ov.OverallTotal += total
		if ev.Date == today {
			ov.TodayDone += done
			ov.TodayTotal += total
		}
	}
	ov.OverallPct = domain.Percent(ov.OverallDone, ov.OverallTotal)
	ov.TodayPct = domain.Percent(ov.TodayDone, ov.TodayTotal)
	return ov, nil
}

// IsInputError reports whether err came from a malformed request.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, planner.ErrInvalidInput)
}
