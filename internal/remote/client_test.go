package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContents is a minimal in-memory contents API.
type fakeContents struct {
	mu      sync.Mutex
	shas    map[string]string // path -> existing sha
	puts    []map[string]any
	gets    []*http.Request
	putCode int
	putBody string
	getBody string // overrides the GET body when set
}

func (f *fakeContents) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		const prefix = "/repos/octo/site/contents/"
		p, ok := strings.CutPrefix(r.URL.Path, prefix)
		if !ok {
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			f.gets = append(f.gets, r.Clone(context.Background()))
			if f.getBody != "" {
				w.WriteHeader(http.StatusOK)
				io.WriteString(w, f.getBody)
				return
			}
			sha, ok := f.shas[p]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, `{"message":"Not Found"}`)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"sha": sha, "path": p})
		case http.MethodPut:
			var body map[string]any
			data, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(data, &body); err != nil {
				t.Errorf("decoding put body: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			body["_path"] = p
			body["_auth"] = r.Header.Get("Authorization")
			body["_accept"] = r.Header.Get("Accept")
			f.puts = append(f.puts, body)

			code := f.putCode
			if code == 0 {
				code = http.StatusCreated
				if _, ok := f.shas[p]; ok {
					code = http.StatusOK
				}
			}
			w.WriteHeader(code)
			if f.putBody != "" {
				io.WriteString(w, f.putBody)
			} else {
				io.WriteString(w, `{}`)
			}
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func (f *fakeContents) Puts() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.puts...)
}

func (f *fakeContents) Gets() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.gets...)
}

func newTestClient(t *testing.T, f *fakeContents) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:       srv.URL,
		Repo:          "octo/site",
		Branch:        "main",
		CommitMessage: "Updated files",
		Token:         "tok-123",
	})
}

// --- NormalizePath ---

func TestNormalizePath(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"a.txt", "a.txt"},
		{"/a.txt", "a.txt"},
		{"///docs/a.txt", "docs/a.txt"},
		{`\docs\a.txt`, "docs/a.txt"},
		{"docs/sub/", "docs/sub/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), tt.in)
	}
}

// --- FileSHA ---

func TestFileSHA_Existing(t *testing.T) {
	t.Parallel()
	f := &fakeContents{shas: map[string]string{"docs/a.txt": "abc123"}}
	c := newTestClient(t, f)

	sha, ok := c.FileSHA(context.Background(), "/docs/a.txt")
	require.True(t, ok)
	assert.Equal(t, "abc123", sha)

	require.Len(t, f.Gets(), 1)
	assert.Equal(t, "main", f.Gets()[0].URL.Query().Get("ref"))
	assert.Equal(t, "Bearer tok-123", f.Gets()[0].Header.Get("Authorization"))
}

func TestFileSHA_NotFound(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, &fakeContents{})
	_, ok := c.FileSHA(context.Background(), "missing.txt")
	assert.False(t, ok)
}

func TestFileSHA_Unparsable(t *testing.T) {
	t.Parallel()
	// a directory listing is an array, not a record
	c := newTestClient(t, &fakeContents{getBody: `[{"sha":"x"}]`})
	_, ok := c.FileSHA(context.Background(), "docs")
	assert.False(t, ok)
}

func TestFileSHA_TransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, Repo: "octo/site", Branch: "main", Timeout: 2 * time.Second})
	_, ok := c.FileSHA(context.Background(), "a.txt")
	assert.False(t, ok)
}

// --- PutContent ---

func TestPutContent_CreateOmitsSHA(t *testing.T) {
	t.Parallel()
	f := &fakeContents{shas: map[string]string{}}
	c := newTestClient(t, f)

	require.NoError(t, c.PutContent(context.Background(), []byte("hello\x00world"), "/notes/a.txt"))

	require.Len(t, f.Puts(), 1)
	put := f.Puts()[0]
	_, hasSHA := put["sha"]
	assert.False(t, hasSHA, "create must not carry a sha field")
	assert.Equal(t, "notes/a.txt", put["_path"])
	assert.Equal(t, "Updated files", put["message"])
	assert.Equal(t, "main", put["branch"])
	assert.Equal(t, "Bearer tok-123", put["_auth"])
	assert.Equal(t, "application/vnd.github.v3+json", put["_accept"])

	decoded, err := base64.StdEncoding.DecodeString(put["content"].(string))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\x00world"), decoded)
}

func TestPutContent_UpdateCarriesSHA(t *testing.T) {
	t.Parallel()
	f := &fakeContents{shas: map[string]string{"a.txt": "deadbeef"}}
	c := newTestClient(t, f)

	require.NoError(t, c.PutContent(context.Background(), []byte("v2"), "a.txt"))
	require.Len(t, f.Puts(), 1)
	assert.Equal(t, "deadbeef", f.Puts()[0]["sha"])
}

func TestPutContent_EscapesSegments(t *testing.T) {
	t.Parallel()
	f := &fakeContents{shas: map[string]string{}}
	c := newTestClient(t, f)

	require.NoError(t, c.PutContent(context.Background(), []byte("x"), "my docs/read me.md"))
	require.Len(t, f.Puts(), 1)
	assert.Equal(t, "my docs/read me.md", f.Puts()[0]["_path"])
}

func TestPutContent_Classification(t *testing.T) {
	t.Parallel()

	t.Run("200 is success", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeContents{putCode: http.StatusOK})
		assert.NoError(t, c.PutContent(context.Background(), []byte("x"), "a"))
	})

	t.Run("404 is not found", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeContents{putCode: http.StatusNotFound, putBody: `{"message":"Not Found"}`})
		err := c.PutContent(context.Background(), []byte("x"), "dir/a")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "octo/site", nf.Repo)
		assert.Equal(t, "dir/a", nf.Path)
		assert.Contains(t, nf.Body, "Not Found")
	})

	t.Run("422 is api error", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeContents{putCode: http.StatusUnprocessableEntity, putBody: `{"message":"sha wasn't supplied"}`})
		err := c.PutContent(context.Background(), []byte("x"), "a")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		assert.Contains(t, apiErr.Body, "sha wasn't supplied")
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("409 is api error", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, &fakeContents{putCode: http.StatusConflict})
		var apiErr *APIError
		require.ErrorAs(t, c.PutContent(context.Background(), []byte("x"), "a"), &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.Status)
	})
}

func TestPutContent_TransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, Repo: "octo/site", Branch: "main", Timeout: 2 * time.Second})
	err := c.PutContent(context.Background(), []byte("x"), "a.txt")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.NotNil(t, te.Cause)
	assert.Contains(t, err.Error(), "transport error")
}

// --- PutFile ---

func TestPutFile(t *testing.T) {
	t.Parallel()
	f := &fakeContents{shas: map[string]string{}}
	c := newTestClient(t, f)

	local := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(local, []byte("a,b\n1,2\n"), 0644))

	require.NoError(t, c.PutFile(context.Background(), local, "data/report.csv"))
	require.Len(t, f.Puts(), 1)
	decoded, _ := base64.StdEncoding.DecodeString(f.Puts()[0]["content"].(string))
	assert.Equal(t, "a,b\n1,2\n", string(decoded))
}

func TestPutFile_MissingLocal(t *testing.T) {
	t.Parallel()
	f := &fakeContents{}
	c := newTestClient(t, f)

	err := c.PutFile(context.Background(), filepath.Join(t.TempDir(), "nope"), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, f.Puts())
}

// --- SearchRepos ---

func TestSearchRepos(t *testing.T) {
	t.Parallel()
	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		queries <- r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[{"full_name":"octo/site","description":"docs"},{"full_name":"octo/sandbox"}]}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	repos, err := c.SearchRepos(context.Background(), "octo/s", 10)
	require.NoError(t, err)
	assert.Equal(t, "user:octo s in:name", <-queries)
	require.Len(t, repos, 2)
	assert.Equal(t, "octo/site", repos[0].FullName)
	assert.Equal(t, "docs", repos[0].Description)
}

func TestSearchRepos_APIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"message":"rate limited"}`)
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).SearchRepos(context.Background(), "octo", 5)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}
