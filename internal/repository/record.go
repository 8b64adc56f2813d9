package repository

import (
	"strings"

	"github.com/alexanderramin/studybot/internal/domain"
)

const (
	summaryPrefix = "학습 계획: "
	summarySep    = ", "
	doneMarker    = " (완료)"
)

// eventRecord is the on-disk shape of one event.
type eventRecord struct {
	Date         string  `json:"date"`
	StartTime    string  `json:"start_time"`
	Summary      string  `json:"summary"`
	Progress     float64 `json:"progress"`
	ReminderDate string  `json:"reminder_date,omitempty"`
	ReminderTime string  `json:"reminder_time,omitempty"`
}

// EncodeSummary renders tasks as the persisted summary string.
func EncodeSummary(tasks []domain.Task) string {
	parts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		name := t.Name
		if t.Done {
			name += doneMarker
		}
		parts = append(parts, name)
	}
	return summaryPrefix + strings.Join(parts, summarySep)
}

// DecodeSummary parses a persisted summary string back into tasks.
// The prefix is optional so hand-edited files still load.
func DecodeSummary(summary string) []domain.Task {
	body := strings.TrimPrefix(strings.TrimSpace(summary), strings.TrimSpace(summaryPrefix))
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	var tasks []domain.Task
	for _, part := range strings.Split(body, summarySep) {
		name := strings.TrimSpace(part)
		done := false
		if strings.HasSuffix(name, strings.TrimSpace(doneMarker)) {
			done = true
			name = strings.TrimSpace(strings.TrimSuffix(name, strings.TrimSpace(doneMarker)))
		}
		if name == "" {
			continue
		}
		tasks = append(tasks, domain.Task{Name: name, Done: done})
	}
	return tasks
}

func toRecord(ev domain.Event) eventRecord {
	return eventRecord{
		Date:         ev.Date,
		StartTime:    ev.StartTime,
		Summary:      EncodeSummary(ev.Tasks),
		Progress:     ev.Progress,
		ReminderDate: ev.ReminderDate,
		ReminderTime: ev.ReminderTime,
	}
}

func fromRecord(r eventRecord) domain.Event {
	ev := domain.Event{
		Date:         strings.TrimSpace(r.Date),
		StartTime:    strings.TrimSpace(r.StartTime),
		Tasks:        DecodeSummary(r.Summary),
		ReminderDate: r.ReminderDate,
		ReminderTime: r.ReminderTime,
	}
	ev.RecomputeProgress()
	return ev
}
