// Package editor launches the Cursor editor scoped to an environment.
package editor

import (
	"errors"
	"os"
	"os/exec"

	"github.com/elijj/cursor-nix-isolated/internal/binding"
)

// ErrNoSession is returned when no environment is bound in the current
// process.
var ErrNoSession = errors.New("no active environment")

// Command builds the editor invocation with both isolation flags pointing
// into the environment's editor subtree.
func Command(binary, userDataDir, extensionsDir string, args ...string) *exec.Cmd {
	flags := []string{
		"--user-data-dir", userDataDir,
		"--extensions-dir", extensionsDir,
	}
	return exec.Command(binary, append(flags, args...)...)
}

// Launch starts the editor detached, reading the bound session state from
// the environment. The editor outlives the session; only resource-key state
// is restored on session exit, not processes the user launched.
func Launch(binary string, args ...string) error {
	userData := os.Getenv(binding.EnvCursorUserData)
	extensions := os.Getenv(binding.EnvCursorExtensions)
	if userData == "" || extensions == "" {
		return ErrNoSession
	}

	cmd := Command(binary, userData, extensions, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Detach: the session does not wait on the editor.
	return cmd.Process.Release()
}
