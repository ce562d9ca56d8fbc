package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// NewRootCmd creates the top-level `ghsync` command.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "ghsync",
		Short: "Push the changed files of a local folder to a GitHub repository",
		Long: `ghsync uploads a local directory tree to a GitHub repository through the
contents API. It remembers the SHA-256 of every file it has sent, so a sync
only uploads new and changed files. Exclusion rules keep secrets, build output
and VCS metadata out of the repository.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setupLogging(cmd.ErrOrStderr())
		},
	}

	g.register(root)

	root.AddCommand(newSyncCmd(g))
	root.AddCommand(newUploadCmd(g))
	root.AddCommand(newStatusCmd(g))
	root.AddCommand(newConfigCmd(g))

	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}
