package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbout22/ghsync/internal/auth"
	"github.com/cbout22/ghsync/internal/remote"
)

// completionTimeout keeps the shell responsive when GitHub is slow.
const completionTimeout = time.Second

// completeConfigSet completes the key of `config set`, and repository names
// for `config set repo`.
func (g *globalFlags) completeConfigSet(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		var keys []string
		for _, k := range configKeys {
			if strings.HasPrefix(k, toComplete) {
				keys = append(keys, k)
			}
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	case 1:
		if args[0] == "repo" {
			client, err := g.searchClient()
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeRepos(cmd.Context(), client, toComplete)
		}
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// searchClient builds an API client from the same settings as workspace.
// Without a token the search runs unauthenticated.
func (g *globalFlags) searchClient() (*remote.Client, error) {
	s, err := g.settings()
	if err != nil {
		return nil, err
	}
	token, _ := auth.Resolve(s.TokenFile)
	return remote.New(remote.Config{
		BaseURL:   s.APIURL,
		Token:     token,
		UserAgent: "ghsync/" + version,
		Timeout:   s.Timeout.Duration,
	}), nil
}

type repoSearcher interface {
	SearchRepos(ctx context.Context, partial string, limit int) ([]remote.RepoSummary, error)
}

func completeRepos(ctx context.Context, s repoSearcher, toComplete string) ([]string, cobra.ShellCompDirective) {
	// an empty query matches nothing useful
	if toComplete == "" {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	repos, err := s.SearchRepos(ctx, toComplete, 10)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var out []string
	for _, r := range repos {
		if r.Description != "" {
			out = append(out, r.FullName+"\t"+r.Description)
		} else {
			out = append(out, r.FullName)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
