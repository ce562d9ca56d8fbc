package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
)

const (
	DefaultSessionFile   = "config.json"
	DefaultBranch        = "main"
	DefaultCommitMessage = "Updated files"

	envPrefix = "GHSYNC"
)

// Session is the per-user remote target: which repository, which branch and
// what commit message every upload uses.
type Session struct {
	Repo          string `json:"repo"`
	Branch        string `json:"branch"`
	CommitMessage string `json:"commit_message"`

	path string
}

// LoadSession reads the session file at path. Environment variables
// GHSYNC_REPO, GHSYNC_BRANCH and GHSYNC_COMMIT_MESSAGE override the file.
//
// A missing file yields the defaults and no error. A corrupt file yields the
// defaults (plus environment overrides) together with the parse error so the
// caller can warn about it.
func LoadSession(path string) (*Session, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("repo", "")
	v.SetDefault("branch", DefaultBranch)
	v.SetDefault("commit_message", DefaultCommitMessage)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			readErr = fmt.Errorf("reading session config %s: %w", path, err)
		}
	}

	s := &Session{
		Repo:          v.GetString("repo"),
		Branch:        v.GetString("branch"),
		CommitMessage: v.GetString("commit_message"),
		path:          path,
	}
	if s.Branch == "" {
		s.Branch = DefaultBranch
	}
	if s.CommitMessage == "" {
		s.CommitMessage = DefaultCommitMessage
	}
	return s, readErr
}

// Path returns the file the session is saved to.
func (s *Session) Path() string {
	return s.path
}

// Save writes the session as pretty-printed JSON.
func (s *Session) Save() error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding session config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing session config: %w", err)
	}
	return nil
}

// Set updates one session key by its user-facing name.
func (s *Session) Set(key, value string) error {
	switch key {
	case "repo":
		r, err := ParseRepo(value)
		if err != nil {
			return err
		}
		s.Repo = r.String()
	case "branch":
		if value == "" {
			return errors.New("branch must not be empty")
		}
		s.Branch = value
	case "message", "commit_message":
		if value == "" {
			return errors.New("commit message must not be empty")
		}
		s.CommitMessage = value
	default:
		return fmt.Errorf("unknown config key %q (valid: repo, branch, message)", key)
	}
	return nil
}
