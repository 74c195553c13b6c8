package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elijj/cursor-nix-isolated/internal/lifecycle"
)

// envsRefreshedMsg carries a fresh environment listing.
type envsRefreshedMsg struct {
	envs []lifecycle.Summary
	err  error
}

// opDoneMsg is sent when a clean or backup finishes.
type opDoneMsg struct {
	verb   string
	detail string
	err    error
}

// statusTickMsg triggers a periodic listing refresh.
type statusTickMsg time.Time

// tickCmd returns a command that sends a tick every 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func refreshCmd(ops *lifecycle.Ops) tea.Cmd {
	return func() tea.Msg {
		envs, err := ops.List()
		return envsRefreshedMsg{envs: envs, err: err}
	}
}

func cleanCmd(ops *lifecycle.Ops, id int) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{verb: "clean", err: ops.Clean(id)}
	}
}

func backupCmd(ops *lifecycle.Ops, id int, label string) tea.Cmd {
	return func() tea.Msg {
		dest, err := ops.Backup(id, label)
		return opDoneMsg{verb: "backup", detail: dest, err: err}
	}
}
