package cli

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gate version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout(), Version, vcsRevision())
		},
	}
}

// printVersion writes "gate <version>", with the commit when known.
func printVersion(w io.Writer, version, revision string) {
	if revision == "" {
		fmt.Fprintf(w, "gate %s\n", version)
		return
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	fmt.Fprintf(w, "gate %s (%s)\n", version, revision)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
