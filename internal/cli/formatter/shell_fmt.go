package formatter

import (
	"fmt"
	"strings"
)

// FormatShellWelcome renders the banner shown when the shell starts.
func FormatShellWelcome() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(StylePurple.Render("  studybot") + "\n")
	b.WriteString(StyleDim.Render("  ─────────────────────────────") + "\n\n")
	b.WriteString(StyleDim.Render("  Talk to the planner in Korean or English.") + "\n\n")
	for _, c := range [][2]string{
		{"일정 생성", "Build a schedule from the outline"},
		{"일정 조회", "Show the saved schedule"},
		{"진행률 보기", "Overall and today's progress"},
		{"도움말", "Every command"},
		{"exit", "Leave the shell"},
	} {
		fmt.Fprintf(&b, "  %s%s\n", StyleGreen.Render(fmt.Sprintf("%-14s", c[0])), StyleDim.Render(c[1]))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatReply renders a router reply, coloring error replies.
func FormatReply(text string) string {
	if strings.HasPrefix(text, "Error:") {
		return StyleRed.Render(text)
	}
	return StyleFg.Render(text)
}

// FormatNotification renders a reminder that arrived while the shell runs.
func FormatNotification(text string) string {
	return StyleYellow.Bold(true).Render("🔔 " + text)
}
