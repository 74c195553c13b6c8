// Package binding remaps process-wide resource locations into an
// environment's namespace and restores them afterwards.
package binding

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/elijj/cursor-nix-isolated/internal/namespace"
)

// ErrNamespaceCreation is returned when the namespace directories cannot be
// created. Nothing process-wide has been mutated when this is returned.
var ErrNamespaceCreation = errors.New("namespace creation failed")

// Resource-key names shared with lifecycle ops, which read the bound state
// back out of the environment instead of re-resolving it.
const (
	EnvID               = "CENV_ID"
	EnvProjectType      = "CENV_PROJECT_TYPE"
	EnvCursorUserData   = "CURSOR_USER_DATA_DIR"
	EnvCursorExtensions = "CURSOR_EXTENSIONS_DIR"
	EnvComposeProject   = "COMPOSE_PROJECT_NAME"
	EnvDockerConfig     = "DOCKER_CONFIG"
	EnvGitConfigGlobal  = "GIT_CONFIG_GLOBAL"
)

type entry struct {
	key   string
	value string
}

// table is the fixed set of resource-key overrides for ns. Order only
// matters in that it is stable; directory creation happens before any of
// these are applied.
func table(ns namespace.Namespace) []entry {
	display := os.Getenv("DISPLAY")
	if display == "" {
		display = ":0"
	}
	return []entry{
		{"HOME", ns.Home},
		{"NODE_PATH", ""}, // module search path starts empty inside an environment
		{"NPM_CONFIG_CACHE", ns.NpmCacheDir()},
		{"NPM_CONFIG_PREFIX", ns.NpmPrefixDir()},
		{"PIP_CACHE_DIR", ns.PipCacheDir()},
		{"PYTHONUSERBASE", ns.PythonUserBase()},
		{EnvCursorUserData, ns.CursorUserDataDir()},
		{EnvCursorExtensions, ns.CursorExtensionsDir()},
		{EnvGitConfigGlobal, ns.GitConfigPath()},
		{EnvDockerConfig, ns.DockerConfigDir()},
		{EnvComposeProject, ns.ProjectLabel()},
		{"DISPLAY", display},
		{EnvID, strconv.Itoa(ns.ID)},
		{EnvProjectType, ns.ProjectType},
	}
}

// Keys returns the resource-key names in bind order.
func Keys() []string {
	keys := make([]string, 0, 16)
	for _, e := range table(namespace.Namespace{ProjectType: namespace.DefaultProjectType}) {
		keys = append(keys, e.key)
	}
	return keys
}

type savedEntry struct {
	key     string
	value   string
	present bool
}

// SavedState records the pre-bind value of every mutated resource key.
// It is consumed exactly once by Unbind and never persisted.
type SavedState struct {
	entries  []savedEntry
	restored bool
}

// Len returns the number of captured resource keys.
func (s *SavedState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Binder applies and reverses resource bindings.
type Binder struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Binder {
	return &Binder{log: log}
}

// Bind creates every directory the namespace needs, seeds the git identity
// file, then captures and overrides each resource key. Directory or seed
// failures abort before any process-wide mutation. If a mutation itself
// fails the partial SavedState is returned alongside the error so the
// caller can still roll back.
func (b *Binder) Bind(ns namespace.Namespace) (*SavedState, error) {
	for _, dir := range ns.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNamespaceCreation, dir, err)
		}
	}
	if err := seedGitIdentity(ns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNamespaceCreation, err)
	}

	st := &SavedState{entries: make([]savedEntry, 0, 16)}
	for _, e := range table(ns) {
		prev, present := os.LookupEnv(e.key)
		st.entries = append(st.entries, savedEntry{key: e.key, value: prev, present: present})
		if err := os.Setenv(e.key, e.value); err != nil {
			return st, fmt.Errorf("binding %s: %w", e.key, err)
		}
	}
	b.log.Debug("resource bindings applied",
		zap.Int("env_id", ns.ID),
		zap.Int("keys", len(st.entries)))
	return st, nil
}

// Unbind restores every captured key to its pre-bind value; keys that had
// no prior value are unset, not left empty. Safe on nil and partial state,
// and a second call is a no-op.
func (b *Binder) Unbind(st *SavedState) {
	if st == nil || st.restored {
		return
	}
	st.restored = true
	for i := len(st.entries) - 1; i >= 0; i-- {
		e := st.entries[i]
		if e.present {
			os.Setenv(e.key, e.value)
		} else {
			os.Unsetenv(e.key)
		}
	}
	b.log.Debug("resource bindings restored", zap.Int("keys", len(st.entries)))
}
