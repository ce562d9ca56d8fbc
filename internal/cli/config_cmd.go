package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cbout22/ghsync/internal/config"
)

// configKeys are the session keys accepted by `config set`.
var configKeys = []string{"repo", "branch", "message"}

// newConfigCmd creates the `config` command group.
func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the target repository, branch, commit message and tool settings",
	}

	cmd.AddCommand(newConfigInitCmd(g))
	cmd.AddCommand(newConfigShowCmd(g))
	cmd.AddCommand(newConfigSetCmd(g))

	return cmd
}

// Usage: ghsync config init [--force]
func newConfigInitCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a ghsync.toml with the default settings",
		Long: `Writes the default tool settings to the --settings path so they can be
edited. An existing file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), g.settingsPath, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	return cmd
}

// Usage: ghsync config show
func newConfigShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the session configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings()
			if err != nil {
				return err
			}
			runConfigShow(cmd.OutOrStdout(), loadSession(s))
			return nil
		},
	}
}

// Usage: ghsync config set <key> <value>
func newConfigSetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one session key (repo, branch or message)",
		Example: `  ghsync config set repo octocat/website
  ghsync config set branch gh-pages
  ghsync config set message "Publish site"`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: g.completeConfigSet,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings()
			if err != nil {
				return err
			}
			return runConfigSet(cmd.OutOrStdout(), loadSession(s), args[0], args[1])
		},
	}
}

func runConfigInit(out io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultSettings().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Wrote default settings to %s\n", path)
	return nil
}

func runConfigShow(out io.Writer, sess *config.Session) {
	repo := sess.Repo
	// an unparsable value is as good as none
	if r, _ := config.ParseRepo(repo); r.IsZero() {
		repo = yellow("(not set)")
	}
	fmt.Fprintf(out, "repo:    %s\n", repo)
	fmt.Fprintf(out, "branch:  %s\n", sess.Branch)
	fmt.Fprintf(out, "message: %s\n", sess.CommitMessage)
	fmt.Fprintf(out, "file:    %s\n", sess.Path())
}

func runConfigSet(out io.Writer, sess *config.Session, key, value string) error {
	if err := sess.Set(key, value); err != nil {
		return err
	}
	if err := sess.Save(); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Set %s in %s\n", key, sess.Path())
	return nil
}
