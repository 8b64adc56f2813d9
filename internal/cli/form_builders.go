package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/studybot/internal/cli/formatter"
	"github.com/alexanderramin/studybot/internal/domain"
	"github.com/alexanderramin/studybot/internal/planner"
)

// studybotHuhTheme matches huh forms to the formatter palette.
func studybotHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.MultiSelectSelector = t.Focused.MultiSelectSelector.Foreground(formatter.ColorHeader)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// weekdayOptions lists Monday to Sunday with Korean and English labels.
func weekdayOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, 7)
	for i := 0; i < 7; i++ {
		d := time.Weekday((i + 1) % 7)
		label := fmt.Sprintf("%s (%s)", domain.KoreanWeekdayLabel(d), d.String()[:3])
		opts = append(opts, huh.NewOption(label, strings.ToLower(d.String())))
	}
	return opts
}

// createForm collects the study rhythm for a new schedule.
func createForm(days *[]string, startTime, weeks *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Study days").
				Options(weekdayOptions()...).
				Value(days).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("pick at least one day")
					}
					return nil
				}),
			huh.NewInput().
				Title("Start time").
				Placeholder("19:00 or 오후 7시").
				Value(startTime).
				Validate(validateClock),
			huh.NewInput().
				Title("Number of weeks").
				Placeholder("4").
				Value(weeks).
				Validate(validatePositiveInt),
		),
	).WithTheme(studybotHuhTheme()).WithShowHelp(false)
}

// confirmForm asks a yes/no question.
func confirmForm(title string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(studybotHuhTheme()).WithShowHelp(false)
}

func validateClock(s string) error {
	if _, err := planner.ParseClock(s); err != nil {
		return fmt.Errorf("use HH:MM, 오전/오후 N시 or Npm")
	}
	return nil
}

func validatePositiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}
