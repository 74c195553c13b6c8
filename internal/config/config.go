package config

import (
	"fmt"
	"os"
	"path/filepath"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CENV_"

// Config is the host-level configuration for the environment manager.
type Config struct {
	// BaseDir is the directory holding every environment subtree
	// (<base>/<id>/{home,cache,config,data}).
	BaseDir string `koanf:"base_dir" yaml:"base_dir"`
	// BackupDir is where backup archives are written. Empty means BaseDir.
	BackupDir string `koanf:"backup_dir" yaml:"backup_dir"`
	// Shell is the interactive shell spawned inside an environment.
	Shell  string `koanf:"shell" yaml:"shell"`
	Docker Docker `koanf:"docker" yaml:"docker"`
	Editor Editor `koanf:"editor" yaml:"editor"`
	Host   Host   `koanf:"host" yaml:"host"`
	Log    Log    `koanf:"log" yaml:"log"`
}

type Docker struct {
	Binary string `koanf:"binary" yaml:"binary"`
	// Host is the daemon socket each per-environment context points at.
	Host string `koanf:"host" yaml:"host"`
}

type Editor struct {
	Binary string `koanf:"binary" yaml:"binary"`
}

type Host struct {
	// RequireNixOS gates the substrate precondition check.
	RequireNixOS bool   `koanf:"require_nixos" yaml:"require_nixos"`
	OSRelease    string `koanf:"os_release" yaml:"os_release"`
}

type Log struct {
	Level string `koanf:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	return &Config{
		BaseDir: filepath.Join(home, "cursor-envs"),
		Shell:   shell,
		Docker: Docker{
			Binary: "docker",
			Host:   "unix:///var/run/docker.sock",
		},
		Editor: Editor{Binary: "cursor"},
		Host: Host{
			RequireNixOS: true,
			OSRelease:    "/etc/os-release",
		},
		Log: Log{Level: "info"},
	}
}

// Path returns the default config file location.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cenv", "config.yaml")
}

// envKeys maps CENV_* variables to config keys. Explicit because several
// keys contain underscores that a blanket transformer would mangle.
var envKeys = map[string]string{
	"BASE_DIR":      "base_dir",
	"BACKUP_DIR":    "backup_dir",
	"SHELL":         "shell",
	"DOCKER_BINARY": "docker.binary",
	"DOCKER_HOST":   "docker.host",
	"EDITOR_BINARY": "editor.binary",
	"REQUIRE_NIXOS": "host.require_nixos",
	"OS_RELEASE":    "host.os_release",
	"LOG_LEVEL":     "log.level",
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when absent), then CENV_* environment overrides. An empty path
// means the default location.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}

	k := koanf.New(".")

	if data, err := os.ReadFile(path); err == nil {
		if err := k.Load(rawbytes.Provider(data), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key, ok := envKeys[s[len(envPrefix):]]
		if !ok {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Exists reports whether a config file is present at path (or the default
// location when path is empty).
func Exists(path string) bool {
	if path == "" {
		path = Path()
	}
	_, err := os.Stat(path)
	return err == nil
}

// BackupBase returns the effective backup sink directory.
func (c *Config) BackupBase() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return c.BaseDir
}
