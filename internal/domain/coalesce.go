package domain

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Coalesce merges events that share a date into one entry per date.
// The first event for a date keeps its position; later events contribute
// their tasks in order. The earliest start time wins and reminder fields
// are taken from the first event that has them.
func Coalesce(events []Event) []Event {
	out := make([]Event, 0, len(events))
	byDate := make(map[string]int, len(events))

	for _, ev := range events {
		idx, seen := byDate[ev.Date]
		if !seen {
			ev.Tasks = append([]Task(nil), ev.Tasks...)
			byDate[ev.Date] = len(out)
			out = append(out, ev)
			continue
		}
		merged := &out[idx]
		for _, t := range ev.Tasks {
			merged.AddTask(t)
		}
		if ev.StartTime != "" && (merged.StartTime == "" || ev.StartTime < merged.StartTime) {
			merged.StartTime = ev.StartTime
		}
		if !merged.HasReminder() && ev.HasReminder() {
			merged.ReminderDate = ev.ReminderDate
			merged.ReminderTime = ev.ReminderTime
		}
	}

	for i := range out {
		out[i].RecomputeProgress()
	}
	return out
}
