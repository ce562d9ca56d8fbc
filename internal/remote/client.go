// Package remote writes single files into a GitHub repository through the
// contents API.
package remote

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "ghsync"

	acceptHeader = "application/vnd.github.v3+json"
)

// Config carries everything a Client needs for every request. Callers build
// it from the session configuration and the resolved token.
type Config struct {
	BaseURL       string
	Repo          string // owner/repo
	Branch        string
	CommitMessage string
	Token         string
	UserAgent     string
	// Timeout bounds each request. Zero leaves the transport default.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client uploads files one at a time. It performs no retries.
type Client struct {
	cfg    Config
	http   *req.Client
	logger *slog.Logger
}

// New builds a client for cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc := req.C().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetUserAgent(cfg.UserAgent).
		SetCommonHeader("Accept", acceptHeader).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)
	if cfg.Token != "" {
		hc.SetCommonBearerAuthToken(cfg.Token)
	}
	if cfg.Timeout > 0 {
		hc.SetTimeout(cfg.Timeout)
	}

	return &Client{cfg: cfg, http: hc, logger: logger}
}

// Repo returns the owner/repo the client writes to.
func (c *Client) Repo() string {
	return c.cfg.Repo
}

// Branch returns the branch the client writes to.
func (c *Client) Branch() string {
	return c.cfg.Branch
}

// NormalizePath strips leading separators and converts backslashes so the
// result is a path relative to the repository root.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.TrimLeft(p, "/")
}

func (c *Client) contentsURL(pathInRepo string) string {
	segments := strings.Split(pathInRepo, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("/repos/%s/contents/%s", c.cfg.Repo, strings.Join(segments, "/"))
}

type contentRecord struct {
	SHA string `json:"sha"`
}

// FileSHA looks up the blob identifier of pathInRepo on the configured
// branch. Not found, an unparsable body and transport failures all report
// false: the following write then goes out as a create and the server's
// answer to it is authoritative.
func (c *Client) FileSHA(ctx context.Context, pathInRepo string) (string, bool) {
	pathInRepo = NormalizePath(pathInRepo)

	r := c.http.R().SetContext(ctx)
	if c.cfg.Branch != "" {
		r.SetQueryParam("ref", c.cfg.Branch)
	}
	resp, err := r.Get(c.contentsURL(pathInRepo))
	if err != nil {
		c.logger.Debug("existence lookup failed, treating as new", "path", pathInRepo, "error", err)
		return "", false
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("no existing record", "path", pathInRepo, "status", resp.StatusCode)
		return "", false
	}

	var rec contentRecord
	if err := json.Unmarshal(resp.Bytes(), &rec); err != nil || rec.SHA == "" {
		c.logger.Debug("unparsable existence response, treating as new", "path", pathInRepo)
		return "", false
	}
	return rec.SHA, true
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

// PutContent creates or updates pathInRepo with content. When the path
// already exists on the branch its current SHA is sent so the write is an
// update; otherwise the field is omitted and the write is a create.
func (c *Client) PutContent(ctx context.Context, content []byte, pathInRepo string) error {
	pathInRepo = NormalizePath(pathInRepo)
	sha, _ := c.FileSHA(ctx, pathInRepo)

	body := putRequest{
		Message: c.cfg.CommitMessage,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.cfg.Branch,
		SHA:     sha,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&body).
		Put(c.contentsURL(pathInRepo))
	if err != nil {
		return &TransportError{Cause: err}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		c.logger.Debug("uploaded", "path", pathInRepo, "status", resp.StatusCode, "update", sha != "")
		return nil
	case http.StatusNotFound:
		return &NotFoundError{Repo: c.cfg.Repo, Path: pathInRepo, Body: resp.String()}
	default:
		return &APIError{Status: resp.StatusCode, Body: resp.String()}
	}
}

// PutFile reads localPath from disk and uploads it to pathInRepo.
func (c *Client) PutFile(ctx context.Context, localPath, pathInRepo string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	return c.PutContent(ctx, data, pathInRepo)
}
