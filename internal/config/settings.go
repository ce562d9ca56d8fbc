package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cbout22/ghsync/internal/digest"
	"github.com/cbout22/ghsync/internal/exclude"
)

const DefaultSettingsFile = "ghsync.toml"

const (
	ProgressSpinner = "spinner"
	ProgressBar     = "bar"
)

// Duration is a time.Duration read from a string such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Settings are the tool options kept in ghsync.toml.
type Settings struct {
	DataDir       string   `toml:"data_dir"`
	TokenFile     string   `toml:"token_file,omitempty"`
	APIURL        string   `toml:"api_url"`
	Timeout       Duration `toml:"timeout"`
	Progress      string   `toml:"progress"`
	Concurrency   int      `toml:"concurrency"`
	StrictDigests bool     `toml:"strict_digests"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() *Settings {
	return &Settings{
		DataDir:     "data",
		APIURL:      "https://api.github.com",
		Progress:    ProgressSpinner,
		Concurrency: 1,
	}
}

// LoadSettings reads a ghsync.toml file from the given path.
// If the file does not exist it returns the defaults (no error).
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	if _, err := toml.Decode(string(data), s); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks value ranges and fills blanks with defaults.
func (s *Settings) Validate() error {
	def := DefaultSettings()
	if s.DataDir == "" {
		s.DataDir = def.DataDir
	}
	if s.APIURL == "" {
		s.APIURL = def.APIURL
	}
	if s.Progress == "" {
		s.Progress = def.Progress
	}
	if s.Progress != ProgressSpinner && s.Progress != ProgressBar {
		return fmt.Errorf("invalid progress style %q: must be %s or %s", s.Progress, ProgressSpinner, ProgressBar)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency %d: must be at least 1", s.Concurrency)
	}
	if s.Timeout.Duration < 0 {
		return fmt.Errorf("invalid timeout %s: must not be negative", s.Timeout.Duration)
	}
	return nil
}

// Save writes the settings back to the given path.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating settings file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return nil
}

// DigestPath is the digest database inside the data dir.
func (s *Settings) DigestPath() string {
	return filepath.Join(s.DataDir, digest.DefaultFile)
}

// SessionPath is the session config inside the data dir.
func (s *Settings) SessionPath() string {
	return filepath.Join(s.DataDir, DefaultSessionFile)
}

// ExcludePath is the exclusion rule resource inside the data dir.
func (s *Settings) ExcludePath() string {
	return filepath.Join(s.DataDir, exclude.DefaultFile)
}
