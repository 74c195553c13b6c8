package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/elijj/cursor-nix-isolated/internal/config"
	"github.com/elijj/cursor-nix-isolated/internal/lifecycle"
)

// model is the Bubble Tea model for the environment dashboard.
type model struct {
	ops    *lifecycle.Ops
	cfg    *config.Config
	envs   []lifecycle.Summary
	input  textinput.Model
	cursor int

	message    string
	isError    bool
	commanding bool // true when in command mode (/ pressed)
	quitting   bool
	busy       bool // a clean/backup is in flight

	// Environment to invoke after the program quits; handled by Run.
	invokeID   string
	invokeType string

	width  int
	height int

	showHelp bool

	// Double-press clean confirmation
	confirmClean   bool
	confirmCleanID int
}

func newModel(ops *lifecycle.Ops, cfg *config.Config) model {
	ti := textinput.New()
	ti.Placeholder = "invoke <id> [type] | clean <id> | backup <id> [label] | quit"
	ti.CharLimit = 256
	ti.Width = 80
	ti.Blur()

	// Get initial terminal size so the first render isn't at width=0
	w, h, _ := term.GetSize(int(os.Stdout.Fd()))
	if w == 0 {
		w = 80
	}
	if h == 0 {
		h = 24
	}

	return model{
		ops:    ops,
		cfg:    cfg,
		input:  ti,
		width:  w,
		height: h,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(refreshCmd(m.ops), tickCmd())
}

func (m model) selected() (lifecycle.Summary, bool) {
	if len(m.envs) == 0 || m.cursor < 0 || m.cursor >= len(m.envs) {
		return lifecycle.Summary{}, false
	}
	return m.envs[m.cursor], true
}
