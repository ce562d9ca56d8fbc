package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cbout22/ghsync/internal/auth"
	"github.com/cbout22/ghsync/internal/config"
	"github.com/cbout22/ghsync/internal/digest"
	"github.com/cbout22/ghsync/internal/progress"
	"github.com/cbout22/ghsync/internal/remote"
	"github.com/cbout22/ghsync/internal/uploader"
)

// globalFlags are the persistent flags shared by every command. Flags that
// were set explicitly override ghsync.toml.
type globalFlags struct {
	settingsPath  string
	dataDir       string
	tokenFile     string
	progress      string
	concurrency   int
	strictDigests bool
	verbose       bool

	cmd *cobra.Command
}

func (g *globalFlags) register(root *cobra.Command) {
	root.PersistentFlags().SortFlags = false
	root.PersistentFlags().StringVar(&g.settingsPath, "settings", config.DefaultSettingsFile, "ghsync settings file")
	root.PersistentFlags().StringVarP(&g.dataDir, "data-dir", "d", "", "directory holding the digest store, session config and exclusion rules")
	root.PersistentFlags().StringVarP(&g.tokenFile, "token-file", "t", "", "file whose first line is the GitHub token")
	root.PersistentFlags().StringVar(&g.progress, "progress", "", "progress style: spinner or bar")
	root.PersistentFlags().IntVarP(&g.concurrency, "concurrency", "j", 0, "number of parallel uploads")
	root.PersistentFlags().BoolVar(&g.strictDigests, "strict-digests", false, "keep the previous digest of files that failed to upload")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	g.cmd = root
}

func (g *globalFlags) setupLogging(w io.Writer) error {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})))
	return nil
}

// settings loads ghsync.toml and applies explicitly set flags on top.
func (g *globalFlags) settings() (*config.Settings, error) {
	s, err := config.LoadSettings(g.settingsPath)
	if err != nil {
		return nil, err
	}
	flags := g.cmd.PersistentFlags()
	if flags.Changed("data-dir") {
		s.DataDir = g.dataDir
	}
	if flags.Changed("token-file") {
		s.TokenFile = g.tokenFile
	}
	if flags.Changed("progress") {
		s.Progress = g.progress
	}
	if flags.Changed("concurrency") {
		s.Concurrency = g.concurrency
	}
	if flags.Changed("strict-digests") {
		s.StrictDigests = g.strictDigests
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadSession reads the session config; a corrupt file is reported and replaced
// by defaults.
func loadSession(s *config.Settings) *config.Session {
	sess, err := config.LoadSession(s.SessionPath())
	if err != nil {
		slog.Warn("using default session config", "error", err)
	}
	return sess
}

// workspace is everything a command needs to talk to the remote.
type workspace struct {
	settings *config.Settings
	store    *digest.Store
	remote   *remote.Client
}

func (g *globalFlags) workspace() (*workspace, error) {
	s, err := g.settings()
	if err != nil {
		return nil, err
	}
	sess := loadSession(s)
	if _, err := config.ParseRepo(sess.Repo); err != nil {
		return nil, fmt.Errorf("no repository configured: run 'ghsync config set repo <owner/repo>'")
	}

	if err := auth.LoadDotEnv(".env"); err != nil {
		slog.Warn("ignoring .env", "error", err)
	}
	token, err := auth.Resolve(s.TokenFile)
	if err != nil {
		return nil, err
	}

	client := remote.New(remote.Config{
		BaseURL:       s.APIURL,
		Repo:          sess.Repo,
		Branch:        sess.Branch,
		CommitMessage: sess.CommitMessage,
		Token:         token,
		UserAgent:     "ghsync/" + version,
		Timeout:       s.Timeout.Duration,
	})

	return &workspace{
		settings: s,
		store:    digest.Open(s.DigestPath(), nil),
		remote:   client,
	}, nil
}

func (w *workspace) uploader(out io.Writer) *uploader.Uploader {
	return newUploader(w.remote, w.store, w.settings, out)
}

func newUploader(r uploader.Remote, store *digest.Store, s *config.Settings, out io.Writer) *uploader.Uploader {
	var reporter progress.Reporter = progress.NewSpinner(out, progress.DefaultInterval)
	if s.Progress == config.ProgressBar {
		reporter = progress.NewBar(out)
	}
	return uploader.New(r, uploader.Options{
		Store:         store,
		RulesPath:     s.ExcludePath(),
		Reporter:      reporter,
		Concurrency:   s.Concurrency,
		StrictDigests: s.StrictDigests,
	})
}
