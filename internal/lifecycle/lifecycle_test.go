package lifecycle

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elijj/cursor-nix-isolated/internal/binding"
	"github.com/elijj/cursor-nix-isolated/internal/config"
	"github.com/elijj/cursor-nix-isolated/internal/dockerctx"
	"github.com/elijj/cursor-nix-isolated/internal/logging"
)

// scriptRunner fakes the docker CLI for lifecycle tests.
type scriptRunner struct {
	daemonUp   bool
	contexts   []string
	containers []string
	stopErr    error
	calls      []string
}

func (s *scriptRunner) Run(args ...string) (string, error) {
	call := strings.Join(args, " ")
	s.calls = append(s.calls, call)

	switch {
	case args[0] == "info":
		if !s.daemonUp {
			return "", errors.New("Cannot connect to the Docker daemon")
		}
		return "27.0.1", nil
	case call == "context ls --format {{.Name}}":
		return strings.Join(s.contexts, "\n"), nil
	case call == "context show":
		return dockerctx.DefaultContext, nil
	case args[0] == "ps":
		return strings.Join(s.containers, "\n"), nil
	case args[0] == "stop":
		return "", s.stopErr
	}
	return "", nil
}

func testOps(t *testing.T, runner *scriptRunner) (*Ops, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.BaseDir = t.TempDir()
	docker := dockerctx.NewWithRunner(runner, cfg.Docker.Host, logging.Nop())
	return NewWithDocker(cfg, logging.Nop(), docker), cfg
}

func seedEnv(t *testing.T, base string, id string) string {
	t.Helper()
	root := filepath.Join(base, id)
	for _, sub := range []string{"home", "cache", "config", "data"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, sub), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "home", "notes.txt"), []byte("hello"), 0o644))
	return root
}

func TestCleanRemovesSubtreeWithoutRuntimeWhenDaemonDown(t *testing.T) {
	runner := &scriptRunner{daemonUp: false}
	ops, cfg := testOps(t, runner)
	root := seedEnv(t, cfg.BaseDir, "2")

	require.NoError(t, ops.Clean(2))

	_, err := os.Stat(root)
	assert.True(t, os.IsNotExist(err), "subtree must be gone")
	for _, c := range runner.calls {
		assert.True(t, strings.HasPrefix(c, "info"), "unexpected runtime call %q", c)
	}
}

func TestCleanStopsAndRemovesLabeledContainers(t *testing.T) {
	runner := &scriptRunner{
		daemonUp:   true,
		contexts:   []string{dockerctx.DefaultContext, "cursor-1"},
		containers: []string{"abc123", "def456"},
	}
	ops, cfg := testOps(t, runner)
	root := seedEnv(t, cfg.BaseDir, "1")

	require.NoError(t, ops.Clean(1))

	assert.Contains(t, runner.calls, "ps -aq --filter label=com.docker.compose.project=cursor-1")
	assert.Contains(t, runner.calls, "stop abc123")
	assert.Contains(t, runner.calls, "rm abc123")
	assert.Contains(t, runner.calls, "stop def456")
	assert.Contains(t, runner.calls, "rm def456")
	assert.Contains(t, runner.calls, "context use default")
	assert.Contains(t, runner.calls, "context rm -f cursor-1")

	_, err := os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanAccumulatesFailuresAndKeepsGoing(t *testing.T) {
	runner := &scriptRunner{
		daemonUp:   true,
		contexts:   []string{dockerctx.DefaultContext, "cursor-1"},
		containers: []string{"abc123"},
		stopErr:    errors.New("container is restarting"),
	}
	ops, cfg := testOps(t, runner)
	root := seedEnv(t, cfg.BaseDir, "1")

	err := ops.Clean(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abc123")

	// Later steps still ran.
	assert.Contains(t, runner.calls, "rm abc123")
	assert.Contains(t, runner.calls, "context rm -f cursor-1")
	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr), "subtree removed despite container failures")
}

func TestCleanRejectsInvalidID(t *testing.T) {
	ops, _ := testOps(t, &scriptRunner{})
	assert.Error(t, ops.Clean(0))
}

func TestBackupCreatesSingleArchive(t *testing.T) {
	ops, cfg := testOps(t, &scriptRunner{daemonUp: false})
	seedEnv(t, cfg.BaseDir, "1")

	dest, err := ops.Backup(1, "snap")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.BaseDir, "1-snap.tar.gz"), dest)

	names := map[string]string{}
	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		var body bytes.Buffer
		if hdr.Typeflag == tar.TypeReg {
			_, err = io.Copy(&body, tr)
			require.NoError(t, err)
		}
		names[hdr.Name] = body.String()
	}

	assert.Contains(t, names, "1/")
	assert.Contains(t, names, "1/home/")
	assert.Contains(t, names, "1/cache/")
	assert.Contains(t, names, "1/config/")
	assert.Contains(t, names, "1/data/")
	assert.Equal(t, "hello", names["1/home/notes.txt"])
}

func TestBackupDefaultLabelIsTimestamp(t *testing.T) {
	ops, cfg := testOps(t, &scriptRunner{})
	seedEnv(t, cfg.BaseDir, "3")

	dest, err := ops.Backup(3, "")
	require.NoError(t, err)
	base := filepath.Base(dest)
	assert.True(t, strings.HasPrefix(base, "3-"), "archive %q not named by id", base)
	assert.True(t, strings.HasSuffix(base, ".tar.gz"))
}

func TestBackupUnwritableSink(t *testing.T) {
	ops, cfg := testOps(t, &scriptRunner{})
	seedEnv(t, cfg.BaseDir, "1")
	cfg.BackupDir = filepath.Join(cfg.BaseDir, "missing", "deeper")

	_, err := ops.Backup(1, "snap")
	assert.ErrorIs(t, err, ErrBackupWrite)
}

func TestBackupMissingEnvironment(t *testing.T) {
	ops, _ := testOps(t, &scriptRunner{})
	_, err := ops.Backup(8, "snap")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBackupWrite)
}

func TestListNumericDirsOnly(t *testing.T) {
	ops, cfg := testOps(t, &scriptRunner{})
	seedEnv(t, cfg.BaseDir, "3")
	seedEnv(t, cfg.BaseDir, "1")
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.BaseDir, "scratch"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BaseDir, "2"), nil, 0o644))

	envs, err := ops.List()
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, 1, envs[0].ID)
	assert.Equal(t, 3, envs[1].ID)
}

func TestListMissingBaseDir(t *testing.T) {
	ops, cfg := testOps(t, &scriptRunner{})
	cfg.BaseDir = filepath.Join(cfg.BaseDir, "never-created")

	envs, err := ops.List()
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestInfoRequiresActiveSession(t *testing.T) {
	ops, _ := testOps(t, &scriptRunner{})
	t.Setenv(binding.EnvID, "")
	os.Unsetenv(binding.EnvID)

	var buf bytes.Buffer
	assert.Error(t, ops.Info(&buf))
}

func TestInfoReportsBoundState(t *testing.T) {
	ops, _ := testOps(t, &scriptRunner{daemonUp: false})
	t.Setenv(binding.EnvID, "7")
	t.Setenv(binding.EnvProjectType, "python311")
	t.Setenv("HOME", "/envs/7/home")

	var buf bytes.Buffer
	require.NoError(t, ops.Info(&buf))
	out := buf.String()
	assert.Contains(t, out, "environment 7 (python311)")
	assert.Contains(t, out, "/envs/7/home")
	assert.Contains(t, out, "unavailable (docker daemon unreachable)")
}
