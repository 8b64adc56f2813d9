// Package planner turns an outline and a weekly study rhythm into events.
package planner

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/alexanderramin/studybot/internal/domain"
)

// ErrInvalidInput marks requests the planner cannot turn into a schedule.
var ErrInvalidInput = errors.New("invalid input")

var rruleDays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// Generate distributes topics over weeks*len(days) sessions.
//
// Each session takes len(topics)/sessions topics, plus one while the
// remainder lasts. Sessions start the Monday strictly after now (in loc) and
// fall on the requested weekdays of each week. Sessions left without topics
// are skipped. Topics not consumed by the sessions go into one trailing event
// weeks*7 days after the anchor.
func Generate(topics []string, days []time.Weekday, studyTime string, weeks int, now time.Time, loc *time.Location) ([]domain.Event, error) {
	if weeks <= 0 {
		return nil, fmt.Errorf("weeks must be positive, got %d: %w", weeks, ErrInvalidInput)
	}
	days = normalizeDays(days)
	if len(days) == 0 {
		return nil, fmt.Errorf("at least one study day is required: %w", ErrInvalidInput)
	}
	clock, err := ParseClock(studyTime)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return []domain.Event{}, nil
	}
	if loc == nil {
		loc = time.Local
	}

	anchor := NextMonday(now, loc)
	total := weeks * len(days)
	dates, err := sessionDates(anchor, days, total)
	if err != nil {
		return nil, err
	}

	per := len(topics) / total
	extra := len(topics) % total

	events := make([]domain.Event, 0, total+1)
	idx := 0
	for _, date := range dates {
		if idx >= len(topics) {
			break
		}
		n := per
		if extra > 0 {
			n++
			extra--
		}
		end := idx + n
		if end > len(topics) {
			end = len(topics)
		}
		if end == idx {
			continue
		}
		events = append(events, newEvent(date, clock, topics[idx:end]))
		idx = end
	}

	if idx < len(topics) {
		trailing := anchor.AddDate(0, 0, weeks*7)
		events = append(events, newEvent(trailing, clock, topics[idx:]))
	}
	return events, nil
}

// NextMonday returns midnight of the first Monday strictly after now in loc.
func NextMonday(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	ahead := (8 - int(local.Weekday())) % 7
	if ahead == 0 {
		ahead = 7
	}
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, ahead)
}

// ParseDays maps weekday labels to weekdays, rejecting unknown labels.
func ParseDays(labels []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(labels))
	for _, l := range labels {
		d, ok := domain.ParseWeekday(l)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q: %w", l, ErrInvalidInput)
		}
		days = append(days, d)
	}
	return days, nil
}

func sessionDates(anchor time.Time, days []time.Weekday, count int) ([]time.Time, error) {
	byDay := make([]rrule.Weekday, len(days))
	for i, d := range days {
		byDay[i] = rruleDays[domain.MondayIndex(d)]
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   anchor,
		Count:     count,
		Byweekday: byDay,
		Wkst:      rrule.MO,
	})
	if err != nil {
		return nil, fmt.Errorf("building session recurrence: %w", err)
	}
	return r.All(), nil
}

// normalizeDays removes duplicates and orders days Monday first.
func normalizeDays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return domain.MondayIndex(out[i]) < domain.MondayIndex(out[j])
	})
	return out
}

func newEvent(date time.Time, clock string, topics []string) domain.Event {
	ev := domain.Event{
		Date:      date.Format(domain.DateLayout),
		StartTime: clock,
		Tasks:     make([]domain.Task, 0, len(topics)),
	}
	for _, t := range topics {
		ev.Tasks = append(ev.Tasks, domain.Task{Name: t})
	}
	return ev
}
