package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cbout22/ghsync/internal/uploader"
)

// newUploadCmd creates the `upload` command group for uploads that bypass
// the digest store.
func newUploadCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a folder or a single file unconditionally",
		Long: `Uploads without consulting or updating the digest store. Exclusion rules
are not applied. Use 'ghsync sync' for incremental uploads.`,
	}

	cmd.AddCommand(newUploadFolderCmd(g))
	cmd.AddCommand(newUploadFileCmd(g))

	return cmd
}

// Usage: ghsync upload folder <dir> [--base path]
func newUploadFolderCmd(g *globalFlags) *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "folder <dir>",
		Short: "Upload every file of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.workspace()
			if err != nil {
				return err
			}
			return runUploadFolderWith(cmd.Context(), cmd.OutOrStdout(), ws.uploader(cmd.ErrOrStderr()), args[0], base)
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", "", "path inside the repository to upload under")
	return cmd
}

// Usage: ghsync upload file <file> [path-in-repo]
func newUploadFileCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "file <file> [path-in-repo]",
		Short: "Upload a single file",
		Long: `Uploads <file> to [path-in-repo]. Without a target path the file's base
name is used, at the repository root.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.workspace()
			if err != nil {
				return err
			}
			var target string
			if len(args) == 2 {
				target = args[1]
			}
			return runUploadFileWith(cmd.Context(), cmd.OutOrStdout(), ws.uploader(cmd.ErrOrStderr()), args[0], target)
		},
	}
}

func runUploadFolderWith(ctx context.Context, out io.Writer, up *uploader.Uploader, src, base string) error {
	report, err := up.UploadFolder(ctx, src, base)
	if err != nil {
		return err
	}
	if report.NoFiles {
		fmt.Fprintf(out, "📋 No files found in %s.\n", src)
		return nil
	}

	for _, p := range report.Uploaded {
		fmt.Fprintf(out, "Uploaded: %s\n", p)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(out, "Failed: %s\n", f.Path)
	}

	printSummary(out, report)
	if len(report.Failed) > 0 {
		return fmt.Errorf("upload completed with %d failed file(s)", len(report.Failed))
	}
	return nil
}

func runUploadFileWith(ctx context.Context, out io.Writer, up *uploader.Uploader, localPath, target string) error {
	if err := up.UploadFile(ctx, localPath, target); err != nil {
		fmt.Fprintf(out, "Failed: %s\n", localPath)
		return err
	}
	fmt.Fprintf(out, "Uploaded: %s\n", localPath)
	return nil
}
