package config

import (
	"os"
	"path/filepath"
)

// DetectProjectType inspects dir and returns a display label for the kind
// of project it holds. The label has no semantics beyond reporting; callers
// fall back to it when the user gives no explicit project type.
func DetectProjectType(dir string) string {
	checks := []struct {
		file  string
		label string
	}{
		{"go.mod", "go"},
		{"package.json", "node"},
		{"requirements.txt", "python"},
		{"pyproject.toml", "python"},
		{"Cargo.toml", "rust"},
		{"flake.nix", "nix"},
	}
	for _, c := range checks {
		if _, err := os.Stat(filepath.Join(dir, c.file)); err == nil {
			return c.label
		}
	}
	return ""
}
