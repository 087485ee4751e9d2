package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, overridable at build time:
//
//	go build -ldflags "-X main.version=1.2.3 -X main.buildDate=2026-08-25"
var (
	version   = "0.1.0"
	buildDate = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s, %s/%s)\n",
				appName, version, buildDate, runtime.GOOS, runtime.GOARCH)
		},
	}
}
