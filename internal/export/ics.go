// Package export renders the schedule as an iCalendar feed.
package export

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/repository"
)

const productID = "-//studybot//study schedule//KO"

// Options controls how events are rendered.
type Options struct {
	Location *time.Location
	// Session is the length of each study session.
	Session time.Duration
	// Stamp is written as DTSTAMP on every event.
	Stamp time.Time
}

// ICS renders one VEVENT per event with a DISPLAY alarm for events that have
// a reminder. Events with unreadable dates or times are skipped and returned
// in skipped.
func ICS(events []domain.Event, opts Options) (out string, skipped []string) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	session := opts.Session
	if session <= 0 {
		session = time.Hour
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Study plan")
	cal.SetXWRTimezone(loc.String())

	for _, ev := range events {
		start, err := time.ParseInLocation(domain.DateLayout+" "+domain.TimeLayout, ev.Date+" "+ev.StartTime, loc)
		if err != nil {
			skipped = append(skipped, ev.Date)
			continue
		}

		vev := cal.AddEvent(fmt.Sprintf("%s-%s@studybot", ev.Date, strings.ReplaceAll(ev.StartTime, ":", "")))
		vev.SetDtStampTime(stamp)
		vev.SetStartAt(start)
		vev.SetEndAt(start.Add(session))
		vev.SetSummary(repository.EncodeSummary(ev.Tasks))
		vev.SetDescription(describe(ev))

		if ev.HasReminder() {
			fire, err := time.ParseInLocation(domain.DateLayout+" "+domain.TimeLayout, ev.ReminderDate+" "+ev.ReminderTime, loc)
			if err == nil && !fire.After(start) {
				alarm := vev.AddAlarm()
				alarm.SetAction(ical.ActionDisplay)
				alarm.SetTrigger(trigger(start.Sub(fire)))
				alarm.SetProperty(ical.ComponentPropertyDescription, "Study session at "+ev.StartTime)
			}
		}
	}
	return cal.Serialize(), skipped
}

func describe(ev domain.Event) string {
	var b strings.Builder
	for _, t := range ev.Tasks {
		mark := "[ ]"
		if t.Done {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, t.Name)
	}
	fmt.Fprintf(&b, "Progress: %.2f%%", ev.Progress)
	return b.String()
}

// trigger renders a negative offset as an RFC 5545 duration.
func trigger(before time.Duration) string {
	if before <= 0 {
		return "PT0M"
	}
	if before%time.Hour == 0 {
		return fmt.Sprintf("-PT%dH", int(before/time.Hour))
	}
	return fmt.Sprintf("-PT%dM", int(before/time.Minute))
}
