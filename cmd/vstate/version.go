package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

func (a *app) versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no config or storage.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				a.printf("%s\n", version)
				return
			}

			a.printf("vstate\n\n")
			a.printf("  Version:    %s\n", version)
			a.printf("  Commit:     %s\n", commit)
			a.printf("  Built:      %s\n", date)
			a.printf("  Go version: %s\n", runtime.Version())
			a.printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
