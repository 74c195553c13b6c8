package namespace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when an environment id is not a positive integer.
var ErrInvalidID = errors.New("environment id must be a positive integer")

// DefaultProjectType is used when the caller does not supply a project type.
const DefaultProjectType = "generic"

// Namespace is the set of filesystem paths assigned to one environment.
// It is derived entirely from the base directory and the environment id;
// two distinct ids always resolve to disjoint subtrees.
type Namespace struct {
	ID          int
	ProjectType string
	Root        string
	Home        string
	Cache       string
	Config      string
	Data        string
}

// ParseID parses a textual environment id, rejecting anything that is not
// a positive integer.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// Resolve maps an environment id to its namespace under base. Pure and
// deterministic: equal inputs always produce equal outputs, so re-running
// for the same id reattaches to the same subtree.
func Resolve(base string, id int, projectType string) (Namespace, error) {
	if id <= 0 {
		return Namespace{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if projectType == "" {
		projectType = DefaultProjectType
	}
	root := filepath.Join(base, strconv.Itoa(id))
	return Namespace{
		ID:          id,
		ProjectType: projectType,
		Root:        root,
		Home:        filepath.Join(root, "home"),
		Cache:       filepath.Join(root, "cache"),
		Config:      filepath.Join(root, "config"),
		Data:        filepath.Join(root, "data"),
	}, nil
}

// ContextName returns the docker context identity for this environment.
func (n Namespace) ContextName() string {
	return fmt.Sprintf("cursor-%d", n.ID)
}

// ProjectLabel returns the compose project name used to tag containers
// started from inside this environment.
func (n Namespace) ProjectLabel() string {
	return fmt.Sprintf("cursor-%d", n.ID)
}

// Tool-specific subtrees. Binding creates all of these before any
// process-wide variable is touched.

func (n Namespace) NpmCacheDir() string    { return filepath.Join(n.Cache, "npm") }
func (n Namespace) NpmPrefixDir() string   { return filepath.Join(n.Data, "npm") }
func (n Namespace) PipCacheDir() string    { return filepath.Join(n.Cache, "pip") }
func (n Namespace) PythonUserBase() string { return filepath.Join(n.Data, "python") }

func (n Namespace) CursorUserDataDir() string {
	return filepath.Join(n.Config, "cursor", "user-data")
}

func (n Namespace) CursorExtensionsDir() string {
	return filepath.Join(n.Config, "cursor", "extensions")
}

func (n Namespace) GitConfigPath() string   { return filepath.Join(n.Config, "git", "config") }
func (n Namespace) DockerConfigDir() string { return filepath.Join(n.Config, "docker") }

// Dirs returns every directory the environment needs on disk, parents first.
func (n Namespace) Dirs() []string {
	return []string{
		n.Root,
		n.Home,
		n.Cache,
		n.Config,
		n.Data,
		n.NpmCacheDir(),
		n.NpmPrefixDir(),
		n.PipCacheDir(),
		n.PythonUserBase(),
		n.CursorUserDataDir(),
		n.CursorExtensionsDir(),
		filepath.Dir(n.GitConfigPath()),
		n.DockerConfigDir(),
	}
}
