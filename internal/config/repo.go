package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRepo = errors.New("invalid repository")

// Repo identifies a GitHub repository in owner/repo form.
type Repo struct {
	Owner string // GitHub organisation or user
	Name  string // Repository name
}

// ParseRepo parses "owner/repo". Surrounding whitespace and a trailing
// ".git" are tolerated; anything else must be exactly two non-empty segments.
func ParseRepo(raw string) (Repo, error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), ".git")
	segments := strings.Split(s, "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return Repo{}, fmt.Errorf("%w %q: must be owner/repo", ErrInvalidRepo, raw)
	}
	return Repo{Owner: segments[0], Name: segments[1]}, nil
}

// String returns "owner/repo".
func (r Repo) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// IsZero reports whether no repository is set.
func (r Repo) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}
