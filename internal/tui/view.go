package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elijj/cursor-nix-isolated/internal/lifecycle"
)

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := headerStyle.Width(m.width).Render("cursor-env — isolated development environments")
	b.WriteString(header)
	b.WriteString("\n")

	if len(m.envs) == 0 {
		b.WriteString(emptyStyle.Render(fmt.Sprintf("No environments under %s. Press / and type `invoke 1` to create one.", m.cfg.BaseDir)))
		b.WriteString("\n\n")
	} else {
		for i, env := range m.envs {
			b.WriteString(m.renderEnv(i, env))
			b.WriteString("\n")
		}
	}

	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	switch {
	case m.commanding:
		b.WriteString(hotkeysStyle.Render("[enter] execute  [esc] cancel"))
	case m.confirmClean:
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Clean environment %d? This deletes its data. Press c again to confirm", m.confirmCleanID)))
	default:
		b.WriteString(hotkeysStyle.Render("[↑↓] select  [enter] invoke  [b]ackup  [c]lean  [/] command  [?] help  [q] quit"))
	}
	b.WriteString("\n")

	if m.message != "" {
		if m.isError {
			b.WriteString(errorStyle.Render(m.message))
		} else {
			b.WriteString(messageStyle.Render(m.message))
		}
		b.WriteString("\n")
	}

	if m.commanding {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.showHelp {
		return m.renderHelpOverlay(b.String())
	}
	return b.String()
}

func (m model) renderEnv(i int, env lifecycle.Summary) string {
	marker := "  "
	label := fmt.Sprintf("%-12s", fmt.Sprintf("env %d", env.ID))
	id := idStyle.Render(label)
	if i == m.cursor {
		marker = "▸ "
		id = selectedIDStyle.Render(label)
	}
	line := fmt.Sprintf("  %s%s %s", marker, id, pathStyle.Render(env.Root))
	if !env.Modified.IsZero() {
		line += pathStyle.Render("  " + env.Modified.Format("2006-01-02 15:04"))
	}
	return line
}

func (m model) renderHelpOverlay(base string) string {
	rows := []struct{ key, desc string }{
		{"enter", "invoke the selected environment"},
		{"b", "back up the selected environment"},
		{"c c", "clean the selected environment (double press)"},
		{"/invoke <id> [type]", "enter an environment by id"},
		{"/clean <id>", "remove containers, context and data"},
		{"/backup <id> [label]", "archive an environment"},
		{"q", "quit"},
	}
	var h strings.Builder
	for _, r := range rows {
		h.WriteString(fmt.Sprintf("%s  %s\n", helpKeyStyle.Render(fmt.Sprintf("%-22s", r.key)), helpDescStyle.Render(r.desc)))
	}
	modal := helpStyle.Render(strings.TrimRight(h.String(), "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
