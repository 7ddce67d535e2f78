package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 72

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Faint(true)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))

	sheetStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)
)

func (m Model) View() string {
	if m.quitting {
		return "Farewell.\n"
	}
	node, err := m.game.Current()
	if err != nil {
		return describe(err) + "\n"
	}
	width := m.width - 4
	if m.width <= 0 {
		width = defaultWidth
	}
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	if doc := m.game.Document(); doc != nil && doc.Title != "" {
		b.WriteString(titleStyle.Render(doc.Title) + "\n")
	}
	b.WriteString(speakerStyle.Render(node.Speaker) + "\n")
	b.WriteString(body.Render(node.Text) + "\n\n")

	if c := m.last; c != nil {
		line := fmt.Sprintf("%s check: rolled %d + %d = %d against %d", c.Skill, c.Roll, c.Value, c.Total, c.Difficulty)
		if c.Success {
			b.WriteString(successStyle.Render(line+", success") + "\n\n")
		} else {
			b.WriteString(failureStyle.Render(line+", failure") + "\n\n")
		}
	}

	choices := m.game.Choices()
	if len(choices) == 0 {
		b.WriteString("The story rests here.\n")
	}
	for _, c := range choices {
		line := fmt.Sprintf("%d) %s", c.Index+1, c.Text)
		if c.Available {
			b.WriteString(choiceStyle.Render(line) + "\n")
		} else {
			b.WriteString(lockedStyle.Render(line+" (locked)") + "\n")
		}
	}

	if m.message != "" {
		b.WriteString("\n" + messageStyle.Render(m.message) + "\n")
	}
	if sheet := m.sheet(); sheet != "" {
		b.WriteString("\n" + sheetStyle.Render(sheet) + "\n")
	}
	help := "1-9 choose, s save, l load, q quit"
	if len(choices) == 0 {
		help = "r restart, s save, l load, q quit"
	}
	b.WriteString("\n" + helpStyle.Render(help) + "\n")
	return b.String()
}

func (m Model) sheet() string {
	st := m.game.State()
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(st.Stats)) {
		parts = append(parts, fmt.Sprintf("%s %d", k, st.Stats[k]))
	}
	lines := []string{}
	if len(parts) > 0 {
		lines = append(lines, strings.Join(parts, "  "))
	}
	if len(st.Inventory) > 0 {
		lines = append(lines, "Carrying: "+strings.Join(st.Inventory, ", "))
	}
	return strings.Join(lines, "\n")
}
