package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/cbout22/ghsync/internal/uploader"
)

var (
	red    = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
)

// target renders "owner/repo@branch:/base".
func target(repo, branch, base string) string {
	return fmt.Sprintf("%s@%s:/%s", repo, branch, base)
}

// printSummary writes the end-of-pass summary: counts, bytes and every
// failed path so the operator can retry them.
func printSummary(out io.Writer, r *uploader.Report) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "📦 Processed %d file(s), uploaded %d (%s)\n",
		r.Processed(), len(r.Uploaded), humanize.Bytes(uint64(r.Bytes)))
	if n := len(r.Unchanged); n > 0 {
		fmt.Fprintf(out, "   %d unchanged\n", n)
	}
	if n := len(r.Excluded); n > 0 {
		fmt.Fprintf(out, "   %d excluded\n", n)
	}
	if n := len(r.Skipped); n > 0 {
		fmt.Fprintf(out, "   %d skipped\n", n)
	}
	if len(r.Failed) > 0 {
		fmt.Fprintf(out, "%s %d failed upload(s):\n", red("❌"), len(r.Failed))
		for _, f := range r.Failed {
			fmt.Fprintf(out, "  ❌ %s: %s\n", f.Path, f.Err)
		}
	}
	if r.SaveErr != nil {
		fmt.Fprintf(out, "⚠️  Digest store not saved: %s\n", r.SaveErr)
	}
}
