package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cbout22/ghsync/internal/digest"
	"github.com/cbout22/ghsync/internal/exclude"
	"github.com/cbout22/ghsync/internal/progress"
	"github.com/cbout22/ghsync/internal/uploader"
)

// newStatusCmd creates the `status` command.
// Usage: ghsync status <dir> [--strict]
func newStatusCmd(g *globalFlags) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "status <dir>",
		Short: "Show which files the next sync would upload",
		Long: `Compares <dir> with the digest store without uploading anything and
without changing the store. Useful in CI/CD pipelines.

With --strict, the command exits with a non-zero code if any file is new or
changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings()
			if err != nil {
				return err
			}
			up := uploader.New(nil, uploader.Options{
				Store:     digest.Open(s.DigestPath(), nil),
				RulesPath: s.ExcludePath(),
				Reporter:  progress.Nop{},
			})
			return runStatusWith(cmd.OutOrStdout(), up, args[0], strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with error code if files are pending upload")

	return cmd
}

func runStatusWith(out io.Writer, up *uploader.Uploader, src string, strict bool) error {
	report, err := up.Status(src)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "🔍 Checking %s...\n", src)
	if report.NoExclusionRules {
		fmt.Fprintln(out, "   no exclusion rules configured")
	}
	if report.IgnoreRules > 0 {
		fmt.Fprintf(out, "   %s: %d rule(s)\n", exclude.IgnoreFileName, report.IgnoreRules)
	}
	fmt.Fprintln(out)

	for _, p := range report.New {
		fmt.Fprintf(out, "  %s %s (new)\n", yellow("➕"), p)
	}
	for _, p := range report.Changed {
		fmt.Fprintf(out, "  %s %s (changed)\n", yellow("✏️ "), p)
	}
	for _, p := range report.Excluded {
		fmt.Fprintf(out, "  ⏭️  %s (excluded)\n", p)
	}
	for _, p := range report.Skipped {
		fmt.Fprintf(out, "  ⚠️  %s (skipped)\n", p)
	}

	fmt.Fprintln(out)
	pending := len(report.New) + len(report.Changed)
	if pending > 0 {
		msg := fmt.Sprintf("%d file(s) pending upload. Run 'ghsync sync %s' to upload them.", pending, src)
		if strict {
			return fmt.Errorf("%s", msg)
		}
		fmt.Fprintf(out, "⚠️  %s\n", msg)
	} else {
		fmt.Fprintf(out, "%s (%d unchanged)\n", green("✅ Everything is in sync."), len(report.Unchanged))
	}
	return nil
}
