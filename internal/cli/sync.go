package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cbout22/ghsync/internal/uploader"
)

// newSyncCmd creates the `sync` command.
// Usage: ghsync sync <dir> [--base path]
func newSyncCmd(g *globalFlags) *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "sync <dir>",
		Short: "Upload the new and changed files of a folder",
		Long: `Walks <dir>, skips files matching the exclusion rules and compares every
other file with the digest recorded by the previous sync. New and changed
files are uploaded under --base in the configured repository and branch.

A file is recorded as synced as soon as it is queued. If its upload fails it
is not retried by the next sync unless --strict-digests is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.workspace()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🔄 Syncing %s → %s\n\n", args[0], cyan(target(ws.remote.Repo(), ws.remote.Branch(), uploader.SanitizeRepoPath(base))))
			return runSyncWith(cmd.Context(), out, ws.uploader(cmd.ErrOrStderr()), args[0], base)
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", "", "path inside the repository to upload under")
	return cmd
}

// runSyncWith is the testable core of the sync command.
func runSyncWith(ctx context.Context, out io.Writer, up *uploader.Uploader, src, base string) error {
	report, err := up.UploadFolderIfChanged(ctx, src, base)
	if err != nil {
		return err
	}

	if report.NothingToUpload {
		fmt.Fprintln(out, "📋 Nothing to upload.")
		return nil
	}

	for _, p := range report.New {
		fmt.Fprintf(out, "  ➕ %s\n", p)
	}
	for _, p := range report.Changed {
		fmt.Fprintf(out, "  ✏️  %s\n", p)
	}

	printSummary(out, report)
	if len(report.Failed) > 0 {
		return fmt.Errorf("sync completed with %d failed upload(s)", len(report.Failed))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, green("✅ All changes uploaded."))
	return nil
}
