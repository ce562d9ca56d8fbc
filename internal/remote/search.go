package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// RepoSummary is one repository returned by SearchRepos.
type RepoSummary struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
}

// SearchRepos returns up to limit repositories matching a partial
// "owner/name" string. "owner/" lists that owner's repositories.
func (c *Client) SearchRepos(ctx context.Context, partial string, limit int) ([]RepoSummary, error) {
	query := partial
	if owner, name, ok := strings.Cut(partial, "/"); ok {
		query = fmt.Sprintf("user:%s %s in:name", owner, name)
	}

	var result struct {
		Items []RepoSummary `json:"items"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", strings.TrimSpace(query)).
		SetQueryParam("per_page", fmt.Sprint(limit)).
		SetSuccessResult(&result).
		Get("/search/repositories")
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: resp.String()}
	}
	return result.Items, nil
}
