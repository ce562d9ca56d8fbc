package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
)

// DefaultFile is where the digest database lives relative to the data dir.
const DefaultFile = "hash_db.json"

var ErrLocked = errors.New("digest store locked by another process")

// Store is the persisted mapping of local file path to the hex SHA-256 of its
// content. It is the only record of "has this file changed since the last
// pass". Entries are never pruned: a file removed locally keeps its entry.
//
// A Store is not safe for concurrent use; the orchestrator that owns it for a
// pass serialises mutations.
type Store struct {
	path    string
	entries map[string]string
	lock    *flock.Flock
	logger  *slog.Logger
}

// Open returns an empty store bound to path. Call Load to read the persisted
// state.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:    path,
		entries: make(map[string]string),
		lock:    flock.New(path + ".lock"),
		logger:  logger,
	}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory state with the persisted one.
// A missing or corrupt file leaves the store empty; it never fails the run.
func (s *Store) Load() {
	s.entries = make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("digest store unreadable, starting empty", "path", s.path, "error", err)
		}
		return
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("digest store corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	s.entries = entries
	s.logger.Debug("digest store loaded", "path", s.path, "entries", len(entries))
}

// Get retrieves the digest recorded for path, if any.
func (s *Store) Get(path string) (string, bool) {
	d, ok := s.entries[path]
	return d, ok
}

// Set records or overwrites the digest for path.
func (s *Store) Set(path, digest string) {
	s.entries[path] = digest
}

// Delete forgets path.
func (s *Store) Delete(path string) {
	delete(s.entries, path)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Save writes the full mapping, pretty-printed, to a temp file in the same
// directory and renames it over the target so readers never see a partial
// file.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding digest store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating digest store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp digest store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing digest store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing digest store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing digest store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing digest store: %w", err)
	}

	s.logger.Debug("digest store saved", "path", s.path, "entries", len(s.entries))
	return nil
}

// Lock takes an advisory lock next to the store file so that two passes
// cannot interleave. It returns ErrLocked when another process holds it.
func (s *Store) Lock() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating digest store dir: %w", err)
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking digest store: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// Unlock releases the lock taken by Lock. It is a no-op if the lock is not
// held by this store. The lock file stays on disk.
func (s *Store) Unlock() error {
	if !s.lock.Locked() {
		return nil
	}
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("unlocking digest store: %w", err)
	}
	return nil
}

// Sum returns the hex-encoded SHA-256 of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// File streams name from fs through SHA-256 and returns the hex digest.
func File(fs billy.Filesystem, name string) (string, error) {
	f, err := fs.Open(name)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", name, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
