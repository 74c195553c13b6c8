package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elijj/cursor-nix-isolated/internal/config"
	"github.com/elijj/cursor-nix-isolated/internal/editor"
	"github.com/elijj/cursor-nix-isolated/internal/lifecycle"
	"github.com/elijj/cursor-nix-isolated/internal/logging"
	"github.com/elijj/cursor-nix-isolated/internal/namespace"
	"github.com/elijj/cursor-nix-isolated/internal/session"
	"github.com/elijj/cursor-nix-isolated/internal/tui"
)

func main() {
	root := &cobra.Command{
		Use:          "cenv",
		Short:        "cursor-env — numbered, isolated development environments",
		SilenceUsage: true,
		RunE:         runDashboard,
	}

	root.AddCommand(
		invokeCmd(),
		infoCmd(),
		cleanCmd(),
		backupCmd(),
		listCmd(),
		editorCmd(),
		initCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration (CENV_CONFIG overrides the default path) and
// builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(os.Getenv("CENV_CONFIG"))
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func invokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <env_id> [project_type]",
		Short: "Enter an environment in an isolated interactive shell",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			projectType := ""
			if len(args) > 1 {
				projectType = args[1]
			}

			code, err := session.New(cfg, log).Run(args[0], projectType)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			// os.Exit skips defers; flush the logger by hand.
			log.Sync()
			os.Exit(code)
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Report the active environment's paths, tools and runtime context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			return lifecycle.New(cfg, log).Info(os.Stdout)
		},
	}
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <env_id>",
		Short: "Remove an environment's containers, docker context and data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			id, err := namespace.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := lifecycle.New(cfg, log).Clean(id); err != nil {
				return fmt.Errorf("clean finished with failures: %w", err)
			}
			fmt.Printf("Environment %d removed.\n", id)
			return nil
		},
	}
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <env_id> [label]",
		Short: "Archive an environment's namespace to a tar.gz",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			id, err := namespace.ParseID(args[0])
			if err != nil {
				return err
			}
			label := ""
			if len(args) > 1 {
				label = args[1]
			}
			dest, err := lifecycle.New(cfg, log).Backup(id, label)
			if err != nil {
				return err
			}
			fmt.Printf("Backup written to %s\n", dest)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List environments present on this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			envs, err := lifecycle.New(cfg, log).List()
			if err != nil {
				return err
			}
			if len(envs) == 0 {
				fmt.Printf("No environments under %s.\n", cfg.BaseDir)
				return nil
			}
			for _, env := range envs {
				fmt.Printf("env %-4d %s\n", env.ID, env.Root)
			}
			return nil
		},
	}
}

func editorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "editor [args...]",
		Short: "Launch Cursor scoped to the active environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			return editor.Launch(cfg.Editor.Binary, args...)
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := os.Getenv("CENV_CONFIG")
			if path == "" {
				path = config.Path()
			}
			if config.Exists(path) {
				fmt.Printf("Config already exists at %s.\n", path)
				return nil
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s.\n", path)
			return nil
		},
	}
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ops := lifecycle.New(cfg, log)
	return tui.Run(ops, cfg, func(id, projectType string) (int, error) {
		return session.New(cfg, log).Run(id, projectType)
	})
}
