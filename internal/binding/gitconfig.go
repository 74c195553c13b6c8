package binding

import (
	"fmt"
	"os"

	gitcfg "github.com/go-git/go-git/v5/plumbing/format/config"

	"github.com/elijj/cursor-nix-isolated/internal/namespace"
)

// seedGitIdentity writes a per-environment global git config on first
// activation. An existing file is never touched, so user edits inside the
// environment survive re-activation.
func seedGitIdentity(ns namespace.Namespace) error {
	path := ns.GitConfigPath()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating git config: %w", err)
	}
	defer f.Close()

	cfg := gitcfg.New()
	user := cfg.Section("user")
	user.SetOption("name", fmt.Sprintf("cursor-env-%d", ns.ID))
	user.SetOption("email", fmt.Sprintf("env-%d@cursor.local", ns.ID))
	cfg.Section("init").SetOption("defaultBranch", "main")

	if err := gitcfg.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing git config: %w", err)
	}
	return nil
}
