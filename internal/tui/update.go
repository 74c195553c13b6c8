package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusTickMsg:
		if m.busy {
			return m, tickCmd()
		}
		return m, tea.Batch(refreshCmd(m.ops), tickCmd())

	case envsRefreshedMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("listing environments: %v", msg.err)
			m.isError = true
			return m, nil
		}
		m.envs = msg.envs
		if m.cursor >= len(m.envs) {
			m.cursor = max(0, len(m.envs)-1)
		}
		return m, nil

	case opDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.message = fmt.Sprintf("%s failed: %v", msg.verb, msg.err)
			m.isError = true
		} else {
			m.message = msg.verb + " done"
			if msg.detail != "" {
				m.message += ": " + msg.detail
			}
			m.isError = false
		}
		return m, refreshCmd(m.ops)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.commanding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Command mode captures everything except enter/esc.
	if m.commanding {
		switch msg.String() {
		case "enter":
			line := m.input.Value()
			m.input.SetValue("")
			m.input.Blur()
			m.commanding = false
			return m.runCommand(line)
		case "esc":
			m.input.SetValue("")
			m.input.Blur()
			m.commanding = false
			return m, nil
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	// A pending clean confirmation is cancelled by any key but c.
	if m.confirmClean && msg.String() != "c" {
		m.confirmClean = false
		m.message = ""
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "esc":
		m.showHelp = false
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.envs)-1 {
			m.cursor++
		}
		return m, nil

	case "/":
		m.commanding = true
		m.input.SetValue("/")
		m.input.Focus()
		m.input.CursorEnd()
		return m, nil

	case "enter":
		if env, ok := m.selected(); ok {
			m.invokeID = strconv.Itoa(env.ID)
			return m, tea.Quit
		}
		return m, nil

	case "b":
		if env, ok := m.selected(); ok {
			m.busy = true
			m.message = fmt.Sprintf("backing up environment %d...", env.ID)
			m.isError = false
			return m, backupCmd(m.ops, env.ID, "")
		}
		return m, nil

	case "c":
		env, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.confirmClean && m.confirmCleanID == env.ID {
			m.confirmClean = false
			m.busy = true
			m.message = fmt.Sprintf("cleaning environment %d...", env.ID)
			m.isError = false
			return m, cleanCmd(m.ops, env.ID)
		}
		m.confirmClean = true
		m.confirmCleanID = env.ID
		return m, nil
	}

	return m, nil
}

func (m model) runCommand(line string) (tea.Model, tea.Cmd) {
	cmd := ParseCommand(line)
	if cmd == nil {
		m.message = "commands start with / (try /invoke 1)"
		m.isError = true
		return m, nil
	}

	switch cmd.Name {
	case "/quit", "/q":
		m.quitting = true
		return m, tea.Quit

	case "/invoke":
		if len(cmd.Args) < 1 {
			m.message = "usage: /invoke <id> [project_type]"
			m.isError = true
			return m, nil
		}
		m.invokeID = cmd.Arg(0)
		m.invokeType = cmd.Arg(1)
		return m, tea.Quit

	case "/clean":
		id, err := cmd.ID()
		if err != nil {
			m.message = "usage: /clean <id>"
			m.isError = true
			return m, nil
		}
		m.busy = true
		m.message = fmt.Sprintf("cleaning environment %d...", id)
		m.isError = false
		return m, cleanCmd(m.ops, id)

	case "/backup":
		id, err := cmd.ID()
		if err != nil {
			m.message = "usage: /backup <id> [label]"
			m.isError = true
			return m, nil
		}
		m.busy = true
		m.message = fmt.Sprintf("backing up environment %d...", id)
		m.isError = false
		return m, backupCmd(m.ops, id, cmd.Arg(1))
	}

	m.message = fmt.Sprintf("unknown command %s", cmd.Name)
	m.isError = true
	return m, nil
}
