package main

import (
	"github.com/spf13/cobra"
)

// skipConfig marks commands that must work without a loadable configuration.
const skipConfig = "skip-config"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "armenu",
		Short: "AR menu restaurant panel",
		Long: "Manage AR menu restaurants and capture 3D models of menu items.\n" +
			"Log in as a restaurant, then use 'armenu scan' to record a dish.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[skipConfig]; ok {
				return nil
			}
			return a.loadConfig()
		},
	}

	root.Version = version
	root.SetVersionTemplate("armenu {{.Version}}\n")
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to configuration file")
	flags.StringVar(&a.format, "format", "", "output format (table, json, simple)")
	flags.BoolVar(&a.compact, "compact", false, "compact output")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newTenantCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newModelCmd(a),
		newScanCmd(a),
		newDevicesCmd(a),
		newCapturesCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)

	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: ""},
		Run: func(cmd *cobra.Command, args []string) {
			a.printf("armenu %s\n", version)
		},
	}
}
