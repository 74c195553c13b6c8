package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elijj/cursor-nix-isolated/internal/config"
	"github.com/elijj/cursor-nix-isolated/internal/lifecycle"
)

// InvokeFunc runs a full environment session and returns its exit code.
// Injected by the caller to keep this package off the session wiring.
type InvokeFunc func(id, projectType string) (int, error)

// Run starts the dashboard loop. It cycles between the Bubble Tea view and
// interactive sessions until the user quits.
func Run(ops *lifecycle.Ops, cfg *config.Config, invoke InvokeFunc) error {
	for {
		m := newModel(ops, cfg)
		p := tea.NewProgram(m, tea.WithAltScreen())
		result, err := p.Run()
		if err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}

		final := result.(model)

		if final.quitting {
			return nil
		}

		if final.invokeID != "" {
			fmt.Printf("Entering environment %s... (exit the shell to return)\n", final.invokeID)
			if _, err := invoke(final.invokeID, final.invokeType); err != nil {
				fmt.Printf("session failed: %v\n", err)
			}
			// Reset terminal after the shell so Bubble Tea starts clean
			fmt.Print("\033c") // full terminal reset (RIS)
		}
	}
}
