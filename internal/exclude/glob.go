package exclude

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the optional gitignore-syntax file read from the source
// root.
const IgnoreFileName = ".ghsyncignore"

// GlobMatcher matches slash-separated paths relative to a root against
// doublestar patterns.
type GlobMatcher struct {
	patterns []string
}

// NewGlobMatcher validates patterns and returns a matcher for them.
func NewGlobMatcher(patterns []string) (*GlobMatcher, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return &GlobMatcher{patterns: patterns}, nil
}

func (g *GlobMatcher) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, p := range g.patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

// IgnoreFile wraps a compiled gitignore file.
type IgnoreFile struct {
	ignore *gitignore.GitIgnore
	rules  int
}

// LoadIgnoreFile reads IgnoreFileName from root inside fsys. It returns nil
// when the file does not exist or cannot be read.
func LoadIgnoreFile(fsys billy.Filesystem, root string, logger *slog.Logger) *IgnoreFile {
	if logger == nil {
		logger = slog.Default()
	}
	ignorePath := path.Join(filepath.ToSlash(root), IgnoreFileName)

	file, err := fsys.Open(ignorePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to open ignore file", "path", ignorePath, "error", err)
		}
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("error reading ignore file", "path", ignorePath, "error", err)
		return nil
	}

	logger.Info("loaded ignore file", "path", ignorePath, "rules", len(lines))
	return &IgnoreFile{
		ignore: gitignore.CompileIgnoreLines(lines...),
		rules:  len(lines),
	}
}

// Rules returns the number of non-empty lines compiled.
func (f *IgnoreFile) Rules() int {
	return f.rules
}

func (f *IgnoreFile) Matches(relPath string) bool {
	return f.ignore.MatchesPath(filepath.ToSlash(relPath))
}
