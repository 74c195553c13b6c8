// Package dockerctx binds the docker CLI to a per-environment context.
package dockerctx

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/elijj/cursor-nix-isolated/internal/namespace"
)

// DefaultContext is the context restored on deactivation.
const DefaultContext = "default"

// Mode classifies runtime availability for the rest of the session.
type Mode int

const (
	// Disabled means the daemon was unreachable at activation; every later
	// runtime-dependent operation becomes a reporting no-op.
	Disabled Mode = iota
	// Active means the daemon answered and a context is selected.
	Active
)

// Status is the outcome of an activation attempt.
type Status struct {
	Mode Mode
	// Context is the selected context name when Mode is Active. It falls
	// back to DefaultContext when the per-environment context could not be
	// created or selected.
	Context string
}

// Runner executes a docker CLI invocation and returns its trimmed output.
type Runner interface {
	Run(args ...string) (string, error)
}

type execRunner struct {
	binary string
}

func (r execRunner) Run(args ...string) (string, error) {
	out, err := exec.Command(r.binary, args...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		return text, fmt.Errorf("docker %s: %s: %w", args[0], text, err)
	}
	return text, nil
}

// Binder manages the per-environment docker context.
type Binder struct {
	runner Runner
	socket string
	log    *zap.Logger
}

// New builds a Binder that shells out to the given docker binary. The
// socket is what freshly created contexts point at.
func New(binary, socket string, log *zap.Logger) *Binder {
	return &Binder{runner: execRunner{binary: binary}, socket: socket, log: log}
}

// NewWithRunner is the test seam.
func NewWithRunner(r Runner, socket string, log *zap.Logger) *Binder {
	return &Binder{runner: r, socket: socket, log: log}
}

// Available probes daemon health. No mutation.
func (b *Binder) Available() bool {
	_, err := b.runner.Run("info", "--format", "{{.ServerVersion}}")
	return err == nil
}

// Activate ensures the environment's context exists and selects it.
// An unreachable daemon yields Disabled without any mutating CLI call.
// Context create/select failures are warnings: the session continues on
// the default context.
func (b *Binder) Activate(ns namespace.Namespace) Status {
	if !b.Available() {
		b.log.Warn("docker daemon unreachable, runtime features disabled",
			zap.Int("env_id", ns.ID))
		return Status{Mode: Disabled}
	}

	name := ns.ContextName()
	if !b.contextExists(name) {
		if _, err := b.runner.Run("context", "create", name, "--docker", "host="+b.socket); err != nil {
			b.log.Warn("could not create docker context, staying on default",
				zap.String("context", name), zap.Error(err))
			return Status{Mode: Active, Context: DefaultContext}
		}
	}
	if _, err := b.runner.Run("context", "use", name); err != nil {
		b.log.Warn("could not select docker context, staying on default",
			zap.String("context", name), zap.Error(err))
		return Status{Mode: Active, Context: DefaultContext}
	}

	b.log.Info("docker context active", zap.String("context", name))
	return Status{Mode: Active, Context: name}
}

// Deactivate re-selects the default context. Best-effort: failures never
// block session teardown.
func (b *Binder) Deactivate() {
	if _, err := b.runner.Run("context", "use", DefaultContext); err != nil {
		b.log.Debug("resetting docker context failed", zap.Error(err))
	}
}

// RemoveContext deletes the environment's context.
func (b *Binder) RemoveContext(name string) error {
	if !b.contextExists(name) {
		return nil
	}
	if _, err := b.runner.Run("context", "rm", "-f", name); err != nil {
		return fmt.Errorf("removing context %s: %w", name, err)
	}
	return nil
}

// UseContext selects an arbitrary context by name.
func (b *Binder) UseContext(name string) error {
	_, err := b.runner.Run("context", "use", name)
	return err
}

func (b *Binder) contextExists(name string) bool {
	out, err := b.runner.Run("context", "ls", "--format", "{{.Name}}")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true
		}
	}
	return false
}

// ContainersByLabel returns the ids of all containers (running or not)
// carrying the given compose project label.
func (b *Binder) ContainersByLabel(label string) ([]string, error) {
	out, err := b.runner.Run("ps", "-aq", "--filter", "label=com.docker.compose.project="+label)
	if err != nil {
		return nil, fmt.Errorf("listing containers for %s: %w", label, err)
	}
	if out == "" {
		return nil, nil
	}
	return strings.Fields(out), nil
}

// StopContainer stops a container by id.
func (b *Binder) StopContainer(id string) error {
	_, err := b.runner.Run("stop", id)
	return err
}

// RemoveContainer removes a container by id.
func (b *Binder) RemoveContainer(id string) error {
	_, err := b.runner.Run("rm", id)
	return err
}

// CurrentContext reports the context the docker CLI would use right now.
func (b *Binder) CurrentContext() (string, error) {
	return b.runner.Run("context", "show")
}
