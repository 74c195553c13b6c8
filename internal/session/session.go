// Package session orchestrates one environment session: resolve, bind,
// activate the runtime context, run the interactive shell, then release
// everything on every exit path.
package session

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/elijj/cursor-nix-isolated/internal/binding"
	"github.com/elijj/cursor-nix-isolated/internal/config"
	"github.com/elijj/cursor-nix-isolated/internal/dockerctx"
	"github.com/elijj/cursor-nix-isolated/internal/namespace"
)

// ErrPrecondition is returned when the host substrate check fails. Nothing
// has been mutated when this is returned.
var ErrPrecondition = errors.New("host precondition failed")

// Controller drives the environment session state machine.
type Controller struct {
	cfg    *config.Config
	log    *zap.Logger
	binder *binding.Binder
	docker *dockerctx.Binder

	// spawn builds the interactive shell command. Overridable in tests.
	spawn func() *exec.Cmd
}

func New(cfg *config.Config, log *zap.Logger) *Controller {
	return &Controller{
		cfg:    cfg,
		log:    log,
		binder: binding.New(log),
		docker: dockerctx.New(cfg.Docker.Binary, cfg.Docker.Host, log),
		spawn: func() *exec.Cmd {
			cmd := exec.Command(cfg.Shell)
			cmd.Stdin = os.Stdin
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			return cmd
		},
	}
}

// Run executes a full session for the given environment and returns the
// shell's exit code. Precondition, id and namespace-creation failures abort
// before any process-wide mutation; once bindings are applied, teardown
// (context deactivation, then binding rollback, in that order) runs on
// every path out, including signals delivered while the shell is active.
func (c *Controller) Run(idArg, projectType string) (int, error) {
	if err := c.checkHost(); err != nil {
		return 1, err
	}

	id, err := namespace.ParseID(idArg)
	if err != nil {
		return 1, err
	}
	if projectType == "" {
		if wd, wdErr := os.Getwd(); wdErr == nil {
			projectType = config.DetectProjectType(wd)
		}
	}
	ns, err := namespace.Resolve(c.cfg.BaseDir, id, projectType)
	if err != nil {
		return 1, err
	}

	saved, err := c.binder.Bind(ns)
	if err != nil {
		// A nil SavedState means nothing was mutated; a partial one still
		// needs rolling back.
		c.binder.Unbind(saved)
		return 1, err
	}

	// Guaranteed release. The docker context is deselected while its
	// DOCKER_CONFIG override is still bound, then bindings are restored.
	status := dockerctx.Status{Mode: dockerctx.Disabled}
	defer func() {
		if status.Mode == dockerctx.Active {
			c.docker.Deactivate()
		}
		c.binder.Unbind(saved)
	}()

	status = c.docker.Activate(ns)

	c.log.Info("entering environment",
		zap.Int("env_id", ns.ID),
		zap.String("project_type", ns.ProjectType),
		zap.String("root", ns.Root))

	return c.runShell()
}

// runShell blocks on the interactive shell. Termination signals are
// forwarded to the shell rather than killing the controller, so the
// deferred teardown in Run always executes.
func (c *Controller) runShell() (int, error) {
	cmd := c.spawn()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("starting shell: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-sigs:
			cmd.Process.Signal(sig)
		case err := <-done:
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return exitErr.ExitCode(), nil
			}
			if err != nil {
				return 1, fmt.Errorf("shell: %w", err)
			}
			return 0, nil
		}
	}
}

// checkHost verifies the expected substrate (NixOS) before any mutation.
// Disabled entirely via config for other hosts.
func (c *Controller) checkHost() error {
	if !c.cfg.Host.RequireNixOS {
		return nil
	}
	data, err := os.ReadFile(c.cfg.Host.OSRelease)
	if err != nil {
		return fmt.Errorf("%w: cannot read %s: %v", ErrPrecondition, c.cfg.Host.OSRelease, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "ID=nixos" {
			return nil
		}
	}
	return fmt.Errorf("%w: this host is not NixOS (set host.require_nixos: false to override)", ErrPrecondition)
}
