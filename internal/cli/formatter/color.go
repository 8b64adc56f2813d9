package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette used by every studybot view. Progress colors run red, yellow,
// green; headers and the date column use the warm accent.
var (
	ColorGreen  = lipgloss.Color("#a3be8c")
	ColorYellow = lipgloss.Color("#ebcb8b")
	ColorRed    = lipgloss.Color("#bf616a")
	ColorBlue   = lipgloss.Color("#81a1c1")
	ColorPurple = lipgloss.Color("#b48ead")
	ColorDim    = lipgloss.Color("#6c7689")
	ColorFg     = lipgloss.Color("#e5e9f0")
	ColorHeader = lipgloss.Color("#d08770")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	StyleGreen  = fg(ColorGreen)
	StyleYellow = fg(ColorYellow)
	StyleRed    = fg(ColorRed)
	StyleBlue   = fg(ColorBlue)
	StylePurple = fg(ColorPurple)
	StyleDim    = fg(ColorDim)
	StyleFg     = fg(ColorFg)
	StyleHeader = fg(ColorHeader).Bold(true)
	StyleBold   = StyleFg.Bold(true)
)

// ProgressStyle colors a completion percentage: red below a third, yellow
// below two thirds, green above.
func ProgressStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 100:
		return StyleGreen.Bold(true)
	case pct >= 66:
		return StyleGreen
	case pct >= 33:
		return StyleYellow
	default:
		return StyleRed
	}
}

// Header upper-cases text and underlines it to the same display width.
func Header(text string) string {
	title := strings.ToUpper(text)
	rule := strings.Repeat("─", lipgloss.Width(title))
	return StyleHeader.Render(title) + "\n" + StyleDim.Render(rule)
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}

func Error(err error) string {
	return StyleRed.Render(fmt.Sprintf("Error: %v", err))
}
