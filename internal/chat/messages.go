package chat

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/studybot/internal/contract"
	"github.com/alexanderramin/studybot/internal/domain"
)

// maxTopicsShown caps the topics listed per event in a schedule reply.
const maxTopicsShown = 3

const helpText = `📌 Commands
- 일정 생성 / create schedule: start a new study plan
- 일정 조회 / view schedule: list the saved schedule
- 일정 수정 D TASK ND NT / edit schedule D TASK ND NT: move a task
- 일정 삭제 D [TASK] / delete schedule D [TASK]: remove a date or one task
- 일정 전체 삭제 / delete all schedules: clear everything (asks first)
- 리마인더 예약 전체 [N] / remind all [N]: remind N hours before every session
- 리마인더 예약 D [N] / remind D [N]: remind N hours before one session
- 진행률 입력 D TASK / record progress D TASK: mark a task complete
- 진행률 보기 / show progress: overall and today's completion
- 도움말 / help: show this menu`

const createPrompt = `📅 To build a study schedule, tell me:
- study days (e.g. 월, 수 or mon wed)
- start time (e.g. 10:00, 오전 9시 or 7pm)
- number of weeks (e.g. 10주 or 4 weeks)

Example: 월, 수 10:00 10주`

const (
	editUsage     = "Usage: 일정 수정 [date] [task] [new date] [new time]\nExample: 일정 수정 2024-12-09 01-5 파이썬 둘러보기 2024-12-11 10:00"
	deleteUsage   = "Usage: 일정 삭제 [date] [task]\nExample: 일정 삭제 2024-12-10 or 일정 삭제 2024-12-10 01-6 파이썬 둘러보기"
	remindUsage   = "Usage: 리마인더 예약 전체 [hours] or 리마인더 예약 [date] [hours]\nExample: 리마인더 예약 2024-12-18 3"
	progressUsage = "Usage: 진행률 입력 [date] [task]\nExample: 진행률 입력 2024-12-18 01-5 파이썬 둘러보기"
)

const deleteAllPrompt = "⚠️ Delete the whole schedule? This cannot be undone. Answer 예/yes to confirm."

// FormatSchedule renders events one per line, listing at most three topics each.
func FormatSchedule(events []domain.Event) string {
	if len(events) == 0 {
		return "No schedule saved yet. Create one first."
	}
	var b strings.Builder
	b.WriteString("📅 Study schedule:")
	for _, ev := range events {
		names := ev.TaskNames()
		shown := names
		if len(shown) > maxTopicsShown {
			shown = shown[:maxTopicsShown]
		}
		fmt.Fprintf(&b, "\n- %s %s: %s", ev.Date, ev.StartTime, strings.Join(shown, ", "))
		if extra := len(names) - len(shown); extra > 0 {
			fmt.Fprintf(&b, " (+%d more)", extra)
		}
		fmt.Fprintf(&b, " [%.0f%%]", ev.Progress)
	}
	return b.String()
}

// FormatProgress renders the overall and today's completion ratios.
func FormatProgress(ov *contract.ProgressOverview) string {
	if ov.Empty {
		return "No schedule saved yet, so there is no progress to show."
	}
	today := "no sessions today"
	if ov.TodayTotal > 0 {
		today = fmt.Sprintf("%.2f%% (%d/%d)", ov.TodayPct, ov.TodayDone, ov.TodayTotal)
	}
	return fmt.Sprintf("📊 Progress\n- overall: %.2f%% (%d/%d)\n- today (%s): %s",
		ov.OverallPct, ov.OverallDone, ov.OverallTotal, ov.Today, today)
}

// FormatReminders renders the outcome of a reminder request.
func FormatReminders(res *contract.ReminderResult) string {
	if !res.Found || len(res.Scheduled) <= 1 {
		return "⏰ " + res.Message
	}
	var b strings.Builder
	b.WriteString("⏰ " + res.Message)
	for _, r := range res.Scheduled {
		fmt.Fprintf(&b, "\n- %s at %s", r.Date, r.FireAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}
