package domain

import (
	"sort"
	"strings"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// DefaultStartTime is used when a task is added to a date that has no event yet.
	DefaultStartTime = "09:00"
)

// Task is one unit of study content scheduled on an event.
type Task struct {
	Name string
	Done bool
}

// Event is one calendar entry bundling a date, a start time and its tasks.
type Event struct {
	Date      string
	StartTime string
	Tasks     []Task
	Progress  float64

	// Set once a reminder has been scheduled for the event.
	ReminderDate string
	ReminderTime string
}

// NormalizeTaskName is the identity used to compare task names.
func NormalizeTaskName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// TaskIndex returns the position of the named task, or -1.
func (e *Event) TaskIndex(name string) int {
	want := NormalizeTaskName(name)
	for i, t := range e.Tasks {
		if NormalizeTaskName(t.Name) == want {
			return i
		}
	}
	return -1
}

// HasTask reports whether the event holds the named task.
func (e *Event) HasTask(name string) bool {
	return e.TaskIndex(name) >= 0
}

// RemoveTask removes the named task and returns it.
func (e *Event) RemoveTask(name string) (Task, bool) {
	i := e.TaskIndex(name)
	if i < 0 {
		return Task{}, false
	}
	t := e.Tasks[i]
	e.Tasks = append(e.Tasks[:i:i], e.Tasks[i+1:]...)
	e.RecomputeProgress()
	return t, true
}

// AddTask appends a task unless a task with the same name is already present.
// Returns false when the task was already there.
func (e *Event) AddTask(t Task) bool {
	if e.HasTask(t.Name) {
		return false
	}
	e.Tasks = append(e.Tasks, t)
	e.RecomputeProgress()
	return true
}

// CompleteTask marks the named task done. It returns found=false when the
// task is absent and changed=false when it was already done.
func (e *Event) CompleteTask(name string) (found, changed bool) {
	i := e.TaskIndex(name)
	if i < 0 {
		return false, false
	}
	if e.Tasks[i].Done {
		return true, false
	}
	e.Tasks[i].Done = true
	e.RecomputeProgress()
	return true, true
}

// Counts returns the number of completed and total tasks.
func (e *Event) Counts() (done, total int) {
	for _, t := range e.Tasks {
		if t.Done {
			done++
		}
	}
	return done, len(e.Tasks)
}

// RecomputeProgress sets Progress to the completed ratio of the event's tasks.
func (e *Event) RecomputeProgress() {
	done, total := e.Counts()
	e.Progress = Percent(done, total)
}

// TaskNames returns the task names in order.
func (e *Event) TaskNames() []string {
	names := make([]string, len(e.Tasks))
	for i, t := range e.Tasks {
		names[i] = t.Name
	}
	return names
}

// HasReminder reports whether a reminder was recorded on the event.
func (e *Event) HasReminder() bool {
	return e.ReminderDate != "" && e.ReminderTime != ""
}

// Percent returns done/total*100, or 0 when total is 0.
func Percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

// SortEvents orders events by date, then start time.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].StartTime < events[j].StartTime
	})
}

// FindEvent returns the index of the event on date, or -1.
func FindEvent(events []Event, date string) int {
	for i := range events {
		if events[i].Date == date {
			return i
		}
	}
	return -1
}
