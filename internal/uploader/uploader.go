// Package uploader pushes a local tree, or the changed part of it, into a
// GitHub repository.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sync/errgroup"

	"github.com/cbout22/ghsync/internal/digest"
	"github.com/cbout22/ghsync/internal/progress"
	"github.com/cbout22/ghsync/internal/scanner"
)

// ErrSourceNotFound is returned when the local source does not exist.
var ErrSourceNotFound = errors.New("source not found")

// Remote writes one file into the repository.
type Remote interface {
	PutContent(ctx context.Context, content []byte, pathInRepo string) error
}

// Options configures an Uploader. Zero values are usable except Store, which
// only incremental uploads require.
type Options struct {
	// Store holds the digests of the last pass.
	Store *digest.Store
	// RulesPath is the exclusion rule resource read at the start of every
	// incremental pass.
	RulesPath string
	Reporter  progress.Reporter
	Logger    *slog.Logger
	// FS opens the tree rooted at a local directory. Defaults to osfs.
	FS func(root string) billy.Filesystem
	// Concurrency above 1 uploads through a bounded worker pool.
	Concurrency int
	// StrictDigests restores the previous digest of a file whose upload
	// failed, so the next pass retries it.
	StrictDigests bool
}

// Uploader runs full, incremental and single-file uploads against a Remote.
type Uploader struct {
	remote Remote
	opts   Options
	logger *slog.Logger
}

// New creates an Uploader.
func New(remote Remote, opts Options) *Uploader {
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FS == nil {
		opts.FS = func(root string) billy.Filesystem { return osfs.New(root) }
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Uploader{remote: remote, opts: opts, logger: opts.Logger}
}

// SanitizeRepoPath turns a user-supplied base path into a repository prefix:
// "." and "" mean the root, backslashes become slashes, and leading and
// trailing slashes are dropped.
func SanitizeRepoPath(base string) string {
	base = strings.TrimSpace(base)
	if base == "." {
		return ""
	}
	base = strings.ReplaceAll(base, `\`, "/")
	return strings.Trim(base, "/")
}

func joinRepoPath(base, rel string) string {
	if base == "" {
		return rel
	}
	return base + "/" + rel
}

// openSource opens src and checks it is a directory.
func (u *Uploader) openSource(src string) (billy.Filesystem, error) {
	fsys := u.opts.FS(src)
	info, err := fsys.Stat(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return nil, fmt.Errorf("opening %s: %w", src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, src)
	}
	return fsys, nil
}

func readAll(fsys billy.Filesystem, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// job is one file scheduled for upload.
type job struct {
	fsPath   string // path inside the source filesystem
	key      string // digest store key and reported path
	repoPath string
	size     int64

	// previous digest, restored on failure in strict mode
	prev    string
	hadPrev bool
}

// UploadFolder uploads every regular file under src to base, preserving the
// relative structure. No exclusion rules and no digests are consulted.
func (u *Uploader) UploadFolder(ctx context.Context, src, base string) (*Report, error) {
	fsys, err := u.openSource(src)
	if err != nil {
		return nil, err
	}
	base = SanitizeRepoPath(base)
	report := &Report{Source: src, Base: base}

	var jobs []job
	for e, err := range scanner.Walk(fsys, ".") {
		if err != nil {
			u.logger.Warn("skipping unreadable entry", "path", e.Path, "error", err)
			continue
		}
		key := sourceKey(src, e.Rel)
		if !e.Regular() {
			u.logger.Info("skipping non-regular file", "path", key, "mode", e.Mode.String())
			report.Skipped = append(report.Skipped, key)
			continue
		}
		jobs = append(jobs, job{fsPath: e.Path, key: key, repoPath: joinRepoPath(base, e.Rel), size: e.Size})
	}

	if len(jobs) == 0 {
		u.logger.Info("no files found", "source", src)
		report.NoFiles = true
		return report, nil
	}

	u.run(ctx, fsys, jobs, report, nil)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// UploadFile uploads a single local file. An empty pathInRepo uses the
// file's base name.
func (u *Uploader) UploadFile(ctx context.Context, localPath, pathInRepo string) error {
	fsys := u.opts.FS(filepath.Dir(localPath))
	name := filepath.Base(localPath)

	info, err := fsys.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, localPath)
		}
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", localPath)
	}

	pathInRepo = SanitizeRepoPath(pathInRepo)
	if pathInRepo == "" {
		pathInRepo = name
	}

	content, err := readAll(fsys, name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	if err := u.remote.PutContent(ctx, content, pathInRepo); err != nil {
		u.logger.Error("upload failed", "path", pathInRepo, "error", err)
		return err
	}
	u.logger.Info("uploaded", "path", pathInRepo, "bytes", len(content))
	return nil
}

// run uploads jobs in order, or through the worker pool when Concurrency is
// above one. onFailure is called for every failed job under the report lock.
func (u *Uploader) run(ctx context.Context, fsys billy.Filesystem, jobs []job, report *Report, onFailure func(job)) {
	reporter := u.opts.Reporter
	reporter.Start()
	defer reporter.Stop()

	var mu sync.Mutex
	started := 0
	total := len(jobs)

	upload := func(j job) {
		mu.Lock()
		started++
		reporter.Update(j.repoPath, started, total)
		mu.Unlock()

		err := u.uploadOne(ctx, fsys, j)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			u.logger.Error("upload failed", "path", j.key, "repo_path", j.repoPath, "error", err)
			report.Failed = append(report.Failed, Failure{Path: j.key, RepoPath: j.repoPath, Err: err})
			if onFailure != nil {
				onFailure(j)
			}
			return
		}
		u.logger.Debug("uploaded", "path", j.key, "repo_path", j.repoPath)
		report.Uploaded = append(report.Uploaded, j.key)
		report.Bytes += j.size
	}

	if u.opts.Concurrency <= 1 {
		for _, j := range jobs {
			upload(j)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(u.opts.Concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			upload(j)
			return nil
		})
	}
	_ = g.Wait()
}

func (u *Uploader) uploadOne(ctx context.Context, fsys billy.Filesystem, j job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := readAll(fsys, j.fsPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", j.key, err)
	}
	return u.remote.PutContent(ctx, content, j.repoPath)
}

// sourceKey is the slash-separated local path recorded in the digest store
// and in reports.
func sourceKey(src, rel string) string {
	return path.Join(filepath.ToSlash(src), rel)
}
