package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// set with -ldflags "-X main.version=..." at build time
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// NewVersionCmd returns a version information cmd
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  version: %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", buildDate)
			fmt.Fprintf(out, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
