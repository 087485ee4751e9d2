package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/framemark/framemark/internal/config"
)

const appName = "framemark"

func newRootCommand() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   appName + " [video]",
		Short: "Frame-stamped video annotation over stdin/stdout",
		Long: `Framemark reads annotation events as text lines on stdin, keeps
frame-stamped point and arrow tables per video session, and writes draw
directives as JSON lines on stdout. All annotations are exported to a
single JSON document at shutdown.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return config.Load(resolveConfigDir(configDir))
		},
		// Running the bare binary annotates, same as the annotate
		// subcommand.
		RunE: runAnnotate,
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "",
		"directory containing framemark.cfg.json (defaults to the executable's directory)")

	rootCmd.AddCommand(newAnnotateCommand())
	rootCmd.AddCommand(newDemoCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// resolveConfigDir picks the config lookup directory. Without the flag
// the config file travels with the binary.
func resolveConfigDir(flag string) string {
	if flag != "" {
		return flag
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
