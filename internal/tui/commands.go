package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a parsed slash command. Environment-addressing commands
// (/invoke, /clean, /backup) put the environment id first.
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a slash command line into a Command.
// Returns nil when the input is not a command.
func ParseCommand(input string) *Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}
	parts := strings.Fields(input)
	return &Command{Name: parts[0], Args: parts[1:]}
}

// ID parses the leading environment id argument.
func (c *Command) ID() (int, error) {
	if len(c.Args) < 1 {
		return 0, fmt.Errorf("missing environment id")
	}
	id, err := strconv.Atoi(c.Args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad environment id %q", c.Args[0])
	}
	return id, nil
}

// Arg returns positional argument i, or "" when absent.
func (c *Command) Arg(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}
