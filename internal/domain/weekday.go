package domain

import (
	"strings"
	"time"
)

// Korean single-character weekday labels, Monday first.
var koreanWeekdays = []struct {
	label string
	day   time.Weekday
}{
	{"월", time.Monday},
	{"화", time.Tuesday},
	{"수", time.Wednesday},
	{"목", time.Thursday},
	{"금", time.Friday},
	{"토", time.Saturday},
	{"일", time.Sunday},
}

var englishWeekdays = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// ParseWeekday maps a Korean or English weekday label to a time.Weekday.
// Korean labels may carry the 요일 suffix ("월요일").
func ParseWeekday(label string) (time.Weekday, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.TrimSuffix(l, "요일")
	for _, kw := range koreanWeekdays {
		if l == kw.label {
			return kw.day, true
		}
	}
	d, ok := englishWeekdays[l]
	return d, ok
}

// KoreanWeekdayLabel returns the single-character Korean label for d.
func KoreanWeekdayLabel(d time.Weekday) string {
	for _, kw := range koreanWeekdays {
		if kw.day == d {
			return kw.label
		}
	}
	return ""
}

// KoreanWeekdayLabels lists the Korean labels Monday first.
func KoreanWeekdayLabels() []string {
	out := make([]string, len(koreanWeekdays))
	for i, kw := range koreanWeekdays {
		out[i] = kw.label
	}
	return out
}

// MondayIndex orders weekdays Monday=0 .. Sunday=6.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
