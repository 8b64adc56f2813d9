package contract

import "time"

// DefaultReminderHours is how long before a session its reminder fires.
const DefaultReminderHours = 1

type ReminderRequest struct {
	// Date limits scheduling to one event; empty means every event.
	Date        string
	HoursBefore int
}

func NewReminderRequest(date string) ReminderRequest {
	return ReminderRequest{
		Date:        date,
		HoursBefore: DefaultReminderHours,
	}
}

type ScheduledReminder struct {
	Date   string
	FireAt time.Time
}

type SkippedReminder struct {
	Date   string
	FireAt time.Time
	Reason string
}

type ReminderResult struct {
	Found     bool
	Scheduled []ScheduledReminder
	Skipped   []SkippedReminder
	Message   string
}
