package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/alexanderramin/studybot/internal/domain"
)

// Plan is the study rhythm extracted from free text.
type Plan struct {
	Days      []time.Weekday
	StartTime string
	Weeks     int
}

var (
	koreanClockRe = regexp.MustCompile(`(오전|오후)\s*(\d{1,2})\s*시(?:\s*(\d{1,2})\s*분)?`)
	meridiemRe    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	colonClockRe  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	weeksRe       = regexp.MustCompile(`(?i)(\d+)\s*(?:주|weeks?\b|w\b)`)
)

// ParseInput reads "days time weeks" from free text, for example
// "월 수 금 오후 7시 4주" or "mon wed 19:00 4 weeks".
func ParseInput(text string) (Plan, error) {
	rest := text

	clock, span, err := findClock(rest)
	if err != nil {
		return Plan{}, err
	}
	if span != "" {
		rest = strings.Replace(rest, span, " ", 1)
	}

	var weeks int
	if m := weeksRe.FindStringSubmatch(rest); m != nil {
		weeks, _ = strconv.Atoi(m[1])
		rest = strings.Replace(rest, m[0], " ", 1)
	}

	days := findDays(rest)

	var missing []string
	if len(days) == 0 {
		missing = append(missing, "study days")
	}
	if clock == "" {
		missing = append(missing, "start time")
	}
	if weeks <= 0 {
		missing = append(missing, "number of weeks")
	}
	if len(missing) > 0 {
		return Plan{}, fmt.Errorf("%q is missing %s: %w", text, strings.Join(missing, ", "), ErrInvalidInput)
	}

	return Plan{Days: normalizeDays(days), StartTime: clock, Weeks: weeks}, nil
}

// ParseClock converts "HH:MM", "오전 N시", "오후 N시" or "Npm" into "HH:MM".
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	clock, span, err := findClock(s)
	if err != nil {
		return "", err
	}
	if clock == "" || strings.TrimSpace(span) != s {
		return "", fmt.Errorf("unrecognized time %q: %w", s, ErrInvalidInput)
	}
	return clock, nil
}

// findClock returns the first time token in s, normalized, and the matched text.
func findClock(s string) (clock, span string, err error) {
	if m := koreanClockRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[2])
		minute := 0
		if m[3] != "" {
			minute, _ = strconv.Atoi(m[3])
		}
		clock, err = meridiemClock(hour, minute, m[1] == "오후")
		return clock, m[0], err
	}
	if m := meridiemRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		clock, err = meridiemClock(hour, minute, strings.EqualFold(m[3], "pm"))
		return clock, m[0], err
	}
	if m := colonClockRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return "", m[0], fmt.Errorf("time out of range %q: %w", m[0], ErrInvalidInput)
		}
		return formatClock(hour, minute), m[0], nil
	}
	return "", "", nil
}

// meridiemClock maps a 12-hour reading to 24-hour time. 12 AM is 00, 12 PM is 12.
func meridiemClock(hour, minute int, pm bool) (string, error) {
	if hour < 1 || hour > 12 || minute > 59 {
		return "", fmt.Errorf("time out of range %d:%02d: %w", hour, minute, ErrInvalidInput)
	}
	if hour == 12 {
		hour = 0
	}
	if pm {
		hour += 12
	}
	return formatClock(hour, minute), nil
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// findDays collects weekdays from whole tokens only. A token is either an
// English day name or a run of Korean day characters ("월", "월수금"), so
// words that merely contain a day character, like 일정, are ignored.
func findDays(s string) []time.Weekday {
	s = strings.ReplaceAll(s, "요일", " ")
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",/·、", r)
	})

	var days []time.Weekday
	for _, tok := range tokens {
		if d, ok := domain.ParseWeekday(tok); ok {
			days = append(days, d)
			continue
		}
		if !isKoreanDayRun(tok) {
			continue
		}
		for _, r := range tok {
			d, _ := domain.ParseWeekday(string(r))
			days = append(days, d)
		}
	}
	return days
}

func isKoreanDayRun(tok string) bool {
	if tok == "" {
		return false
	}
	labels := strings.Join(domain.KoreanWeekdayLabels(), "")
	for _, r := range tok {
		if !strings.ContainsRune(labels, r) {
			return false
		}
	}
	return true
}
