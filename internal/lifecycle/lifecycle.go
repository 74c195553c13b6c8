// Package lifecycle implements environment-scoped operations: info, clean,
// backup and listing. Info reads the already-bound session state; clean and
// backup address an environment by id.
package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/elijj/cursor-nix-isolated/internal/binding"
	"github.com/elijj/cursor-nix-isolated/internal/config"
	"github.com/elijj/cursor-nix-isolated/internal/dockerctx"
	"github.com/elijj/cursor-nix-isolated/internal/namespace"
)

// Ops bundles the collaborators the lifecycle operations need.
type Ops struct {
	cfg    *config.Config
	log    *zap.Logger
	docker *dockerctx.Binder
}

func New(cfg *config.Config, log *zap.Logger) *Ops {
	return &Ops{
		cfg:    cfg,
		log:    log,
		docker: dockerctx.New(cfg.Docker.Binary, cfg.Docker.Host, log),
	}
}

// NewWithDocker is the test seam.
func NewWithDocker(cfg *config.Config, log *zap.Logger, docker *dockerctx.Binder) *Ops {
	return &Ops{cfg: cfg, log: log, docker: docker}
}

// versionProbes are queried independently by Info; a missing tool is
// reported, never an error.
var versionProbes = []struct {
	name string
	args []string
}{
	{"git", []string{"--version"}},
	{"node", []string{"--version"}},
	{"npm", []string{"--version"}},
	{"python3", []string{"--version"}},
	{"docker", []string{"--version"}},
	{"cursor", []string{"--version"}},
}

// Info reports the bound state of the active session: resolved paths, tool
// versions and the runtime context. It fails only when no session is
// active.
func (o *Ops) Info(w io.Writer) error {
	id := os.Getenv(binding.EnvID)
	if id == "" {
		return errors.New("no active environment (start one with `cenv invoke <id>`)")
	}

	fmt.Fprintf(w, "environment %s (%s)\n\n", id, os.Getenv(binding.EnvProjectType))

	fmt.Fprintln(w, "bindings:")
	for _, key := range binding.Keys() {
		if v, ok := os.LookupEnv(key); ok {
			fmt.Fprintf(w, "  %-22s %s\n", key, v)
		}
	}

	fmt.Fprintln(w, "\ntools:")
	for _, p := range versionProbes {
		fmt.Fprintf(w, "  %-22s %s\n", p.name, probeVersion(p.name, p.args))
	}

	fmt.Fprintln(w, "\nruntime:")
	if o.docker.Available() {
		ctx, err := o.docker.CurrentContext()
		if err != nil {
			ctx = "unknown"
		}
		fmt.Fprintf(w, "  context                %s\n", ctx)
	} else {
		fmt.Fprintln(w, "  unavailable (docker daemon unreachable)")
	}
	return nil
}

func probeVersion(name string, args []string) string {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return "not installed"
	}
	line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	return line
}

// Clean tears an environment down: stop and remove containers carrying its
// project label, drop its docker context, then delete the namespace
// subtree. Best-effort throughout; every failure is collected and the
// remaining steps still run.
func (o *Ops) Clean(id int) error {
	ns, err := namespace.Resolve(o.cfg.BaseDir, id, "")
	if err != nil {
		return err
	}

	var errs error
	if o.docker.Available() {
		name := ns.ContextName()
		if err := o.docker.UseContext(name); err != nil {
			o.log.Debug("could not select environment context", zap.Error(err))
		}

		ids, err := o.docker.ContainersByLabel(ns.ProjectLabel())
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		for _, cid := range ids {
			if err := o.docker.StopContainer(cid); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("stopping %s: %w", cid, err))
			}
			if err := o.docker.RemoveContainer(cid); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("removing %s: %w", cid, err))
			}
		}

		o.docker.Deactivate()
		if err := o.docker.RemoveContext(name); err != nil {
			errs = multierr.Append(errs, err)
		}
	} else {
		o.log.Warn("docker daemon unreachable, skipping container cleanup",
			zap.Int("env_id", id))
	}

	if err := os.RemoveAll(ns.Root); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("removing namespace %s: %w", ns.Root, err))
	}

	o.log.Info("environment cleaned",
		zap.Int("env_id", id),
		zap.Int("failures", len(multierr.Errors(errs))))
	return errs
}

// Summary describes one environment found on disk.
type Summary struct {
	ID       int
	Root     string
	Modified time.Time
}

// List enumerates the environments present under the base directory.
func (o *Ops) List() ([]Summary, error) {
	entries, err := os.ReadDir(o.cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", o.cfg.BaseDir, err)
	}

	var out []Summary
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.Atoi(e.Name())
		if err != nil || id <= 0 {
			continue
		}
		ns, err := namespace.Resolve(o.cfg.BaseDir, id, "")
		if err != nil {
			continue
		}
		sum := Summary{ID: id, Root: ns.Root}
		if info, err := e.Info(); err == nil {
			sum.Modified = info.ModTime()
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
