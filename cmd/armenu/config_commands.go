package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/0xmhha/armenu-panel/pkg/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management (show, path, reset)",
	}
	cmd.AddCommand(newConfigShowCmd(a), newConfigPathCmd(a), newConfigResetCmd(a))
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long:  "Display the effective configuration as YAML, or as JSON with --format json.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.format == "json" {
				data, err := json.MarshalIndent(a.cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				a.printf("%s\n", data)
				return nil
			}

			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			a.printf("# Current Configuration\n# Source: %s\n\n%s", a.configSource(), data)
			return nil
		},
	}
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := []string{"./armenu.yaml", config.DefaultConfigPath()}
			if a.configPath != "" {
				paths = []string{a.configPath}
			}

			a.printf("Configuration file search paths (in order of precedence):\n\n")
			for i, p := range paths {
				exists := "not found"
				if _, err := os.Stat(p); err == nil {
					exists = "found"
				}
				a.printf("  %d. %s [%s]\n", i+1, p, exists)
			}
			a.printf("\nActive configuration: %s\n", a.configSource())
			return nil
		},
	}
}

func newConfigResetCmd(a *app) *cobra.Command {
	var (
		force  bool
		output string
	)

	cmd := &cobra.Command{
		Use:         "reset",
		Short:       "Write the default configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				path = a.configPath
			}
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				a.printf("Configuration file already exists at: %s\n", path)
				if !a.confirm("Overwrite?") {
					a.printf("Reset cancelled.\n")
					return nil
				}
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			a.printf("Configuration reset to defaults at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path for config file")
	return cmd
}

func (a *app) configSource() string {
	if a.loader != nil && a.loader.Path() != "" {
		return a.loader.Path()
	}
	return "defaults (no config file found)"
}
