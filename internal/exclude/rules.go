package exclude

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/goccy/go-json"
)

// DefaultFile is the exclusion resource name relative to the data dir.
const DefaultFile = "exclude_patterns.json"

// Matcher decides whether a path is excluded. Paths are slash-separated.
type Matcher interface {
	Matches(path string) bool
}

// MatcherFunc adapts a plain function to Matcher.
type MatcherFunc func(path string) bool

func (f MatcherFunc) Matches(path string) bool { return f(path) }

// Rules is the blunt substring/suffix rule set. Matching is case-sensitive
// byte comparison; no glob syntax is interpreted in Files, Dirs or Patterns.
type Rules struct {
	// Files are exact filenames.
	Files []string `json:"files,omitempty"`
	// Dirs are directory-name fragments matched as a path segment.
	Dirs []string `json:"dirs,omitempty"`
	// Patterns match when the filename contains or ends with them.
	Patterns []string `json:"patterns,omitempty"`
	// Globs are doublestar patterns matched against the path relative to
	// the source root.
	Globs []string `json:"globs,omitempty"`

	files mapset.Set[string]
}

// Load reads the rule resource at path. A missing file yields empty rules
// and no error; a corrupt file yields empty rules and the parse error so the
// caller can report it.
func Load(path string) (*Rules, error) {
	r := &Rules{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r.init(), nil
		}
		return r.init(), fmt.Errorf("reading exclusion rules: %w", err)
	}

	if err := json.Unmarshal(data, r); err != nil {
		return (&Rules{}).init(), fmt.Errorf("parsing exclusion rules: %w", err)
	}
	return r.init(), nil
}

// New builds a rule set from literal values.
func New(files, dirs, patterns []string) *Rules {
	return (&Rules{Files: files, Dirs: dirs, Patterns: patterns}).init()
}

func (r *Rules) init() *Rules {
	r.files = mapset.NewThreadUnsafeSet(r.Files...)
	return r
}

// Empty reports whether the rule set has no rules at all.
func (r *Rules) Empty() bool {
	return len(r.Files) == 0 && len(r.Dirs) == 0 && len(r.Patterns) == 0 && len(r.Globs) == 0
}

// MatchesFile reports whether a filename hits the exact-filename set or
// contains one of the patterns.
func (r *Rules) MatchesFile(name string) bool {
	if r.files == nil {
		r.init()
	}
	if r.files.Contains(name) {
		return true
	}
	for _, pat := range r.Patterns {
		if strings.Contains(name, pat) || strings.HasSuffix(name, pat) {
			return true
		}
	}
	return false
}

// MatchesDir reports whether p contains "/<dir>/" or ends with "/<dir>" for
// any directory fragment.
func (r *Rules) MatchesDir(p string) bool {
	p = filepath.ToSlash(p)
	for _, dir := range r.Dirs {
		if dir == "" {
			continue
		}
		if strings.Contains(p, "/"+dir+"/") || strings.HasSuffix(p, "/"+dir) {
			return true
		}
	}
	return false
}

// ShouldExclude applies the filename and directory rules to p.
func (r *Rules) ShouldExclude(p string) bool {
	p = filepath.ToSlash(p)
	return r.MatchesFile(path.Base(p)) || r.MatchesDir(p)
}

// Matches implements Matcher.
func (r *Rules) Matches(p string) bool {
	return r.ShouldExclude(p)
}

// Any returns a Matcher that excludes a path when any of ms does.
// Nil matchers are skipped.
func Any(ms ...Matcher) Matcher {
	var live []Matcher
	for _, m := range ms {
		if m != nil {
			live = append(live, m)
		}
	}
	return MatcherFunc(func(p string) bool {
		for _, m := range live {
			if m.Matches(p) {
				return true
			}
		}
		return false
	})
}
