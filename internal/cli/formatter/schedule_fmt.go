package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/studybot/internal/contract"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/notify"
)

// FormatSchedule renders the schedule as a table, one row per event.
func FormatSchedule(events []domain.Event, now time.Time) string {
	if len(events) == 0 {
		return Dim("No schedule saved yet. Run 'studybot create' first.") + "\n"
	}

	headers := []string{"DATE", "DAY", "TIME", "WHEN", "TASKS", "PROGRESS", "REMINDER"}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		day, err := time.ParseInLocation(domain.DateLayout, ev.Date, now.Location())
		label, when := "?", Dim("?")
		if err == nil {
			label = domain.KoreanWeekdayLabel(day.Weekday())
			when = RelativeDayStyled(day, now)
		}
		reminder := Dim("-")
		if ev.HasReminder() {
			reminder = StyleBlue.Render(ev.ReminderDate + " " + ev.ReminderTime)
		}
		rows = append(rows, []string{
			ev.Date,
			label,
			ev.StartTime,
			when,
			formatTasks(ev.Tasks),
			RenderProgress(ev.Progress, 10),
			reminder,
		})
	}
	return RenderBox("Study schedule", RenderTable(headers, rows))
}

func formatTasks(tasks []domain.Task) string {
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		parts[i] = Checkbox(t.Done) + " " + Truncate(t.Name, 32)
	}
	return strings.Join(parts, "  ")
}

// FormatEventDetail lists every task of one event.
func FormatEventDetail(ev domain.Event) string {
	var b strings.Builder
	b.WriteString(Header(ev.Date+" "+ev.StartTime) + "\n")
	for _, t := range ev.Tasks {
		fmt.Fprintf(&b, "  %s %s\n", Checkbox(t.Done), t.Name)
	}
	b.WriteString("  " + RenderProgress(ev.Progress, 20) + "\n")
	return b.String()
}

// FormatProgressOverview renders overall and today's completion bars.
func FormatProgressOverview(ov *contract.ProgressOverview) string {
	if ov.Empty {
		return Dim("No schedule saved yet, so there is no progress to show.") + "\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %s  %s\n", Bold("Overall"), RenderProgress(ov.OverallPct, 24),
		Dim(fmt.Sprintf("%d/%d tasks", ov.OverallDone, ov.OverallTotal)))
	if ov.TodayTotal == 0 {
		fmt.Fprintf(&b, "%-8s %s\n", Bold("Today"), Dim("no sessions on "+ov.Today))
	} else {
		fmt.Fprintf(&b, "%-8s %s  %s\n", Bold("Today"), RenderProgress(ov.TodayPct, 24),
			Dim(fmt.Sprintf("%d/%d tasks", ov.TodayDone, ov.TodayTotal)))
	}
	return RenderBox("Progress", b.String())
}

// FormatReminderResult lists armed and skipped reminders under the summary line.
func FormatReminderResult(res *contract.ReminderResult) string {
	var b strings.Builder
	b.WriteString(res.Message + "\n")
	for _, r := range res.Scheduled {
		fmt.Fprintf(&b, "  %s %s %s\n", StyleGreen.Render("⏰"), r.Date, Dim("fires "+r.FireAt.Format("2006-01-02 15:04")))
	}
	for _, r := range res.Skipped {
		fmt.Fprintf(&b, "  %s %s %s\n", StyleYellow.Render("–"), r.Date, Dim(r.Reason))
	}
	return b.String()
}

// FormatHistory renders chat log turns oldest first.
func FormatHistory(turns []*domain.ChatTurn) string {
	if len(turns) == 0 {
		return Dim("No conversation recorded yet.") + "\n"
	}
	headers := []string{"TIME", "CHANNEL", "ROLE", "MESSAGE"}
	rows := make([][]string, 0, len(turns))
	for _, t := range turns {
		role := StyleBlue.Render(string(t.Role))
		if t.Role == domain.RoleAssistant {
			role = StylePurple.Render(string(t.Role))
		}
		msg := strings.ReplaceAll(t.Message, "\n", " ")
		rows = append(rows, []string{
			t.CreatedAt.Local().Format("01-02 15:04"),
			t.Channel,
			role,
			Truncate(msg, 60),
		})
	}
	return RenderTable(headers, rows)
}

// FormatSentReminders renders delivered reminders, newest first.
func FormatSentReminders(sent []notify.Notification) string {
	if len(sent) == 0 {
		return Dim("No reminders delivered yet.") + "\n"
	}
	rows := make([][]string, 0, len(sent))
	for _, n := range sent {
		rows = append(rows, []string{
			n.FireAt.Local().Format("2006-01-02 15:04"),
			n.Date,
			Truncate(n.Text, 60),
		})
	}
	return RenderTable([]string{"FIRED", "SESSION", "MESSAGE"}, rows)
}
