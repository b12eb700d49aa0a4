package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codenerd/internal/config"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "load and validate a workspace config file without starting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := resolveWorkspace()
		if err != nil {
			return fmt.Errorf("resolve workspace: %w", err)
		}
		path := resolveConfigPath(ws)

		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}
		fmt.Printf("%s is valid: %d toolchain(s), default=%q\n", path, len(cfg.Toolchains), cfg.DefaultToolchain)
		return nil
	},
}
