// Package picker drives a selection widget from a line-oriented terminal session.
package picker

import (
	"fmt"
	"strings"

	"github.com/alexivanou/sportslocations/internal/widget"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Faint(true).
			Strikethrough(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("32"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Render draws the choices and the selection side by side
func Render(v widget.View) string {
	var choices strings.Builder
	choices.WriteString(titleStyle.Render("Choices"))
	choices.WriteString("\n")

	switch v.Status {
	case widget.StatusLoading:
		choices.WriteString(metaStyle.Render("Loading"))
	case widget.StatusNoMatches:
		choices.WriteString(metaStyle.Render("No matches found"))
	case widget.StatusFailed:
		choices.WriteString(noticeStyle.Render("Failed to load choices"))
	default:
		renderNodes(&choices, v.Choices, 0)
		if v.HasMore {
			choices.WriteString(metaStyle.Render(fmt.Sprintf("more available (page %d), type 'more'", v.Page)))
		}
	}

	var selected strings.Builder
	selected.WriteString(titleStyle.Render(fmt.Sprintf("Selected (%d)", len(v.Selected))))
	selected.WriteString("\n")
	for _, e := range v.Selected {
		text := e.Text
		if text == "" {
			text = fmt.Sprintf("(id: %d)", e.ID)
		}
		selected.WriteString(selectedStyle.Render(text))
		selected.WriteString("\n")
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(strings.TrimRight(choices.String(), "\n")),
		panelStyle.Render(strings.TrimRight(selected.String(), "\n")),
	)
	if v.Notice != "" {
		out += "\n" + noticeStyle.Render(v.Notice)
	}
	return out
}

func renderNodes(b *strings.Builder, nodes []widget.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.IsGroup() {
			b.WriteString(indent + groupStyle.Render(n.Text) + "\n")
			renderNodes(b, n.Children, depth+1)
			continue
		}
		style := choiceStyle
		if n.Disabled {
			style = disabledStyle
		}
		b.WriteString(indent + style.Render(n.Text) + "\n")
	}
}
