package uploader

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-git/go-billy/v5"

	"github.com/cbout22/ghsync/internal/digest"
	"github.com/cbout22/ghsync/internal/exclude"
	"github.com/cbout22/ghsync/internal/scanner"
)

// UploadFolderIfChanged uploads the files under src whose content differs
// from the digest recorded by the previous pass.
//
// A file's new digest is written into the store as soon as it is classified,
// before its upload runs. With StrictDigests off a failed upload keeps that
// digest, so the next pass will not retry the file; with StrictDigests on the
// previous digest is restored. The store is persisted once, after the work
// list is exhausted, and never when there was nothing to upload or the
// context was cancelled.
func (u *Uploader) UploadFolderIfChanged(ctx context.Context, src, base string) (*Report, error) {
	store := u.opts.Store
	if store == nil {
		return nil, errors.New("incremental upload needs a digest store")
	}

	fsys, err := u.openSource(src)
	if err != nil {
		return nil, err
	}

	if err := store.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Unlock(); err != nil {
			u.logger.Warn("failed to release digest store lock", "path", store.Path(), "error", err)
		}
	}()

	store.Load()

	base = SanitizeRepoPath(base)
	report := &Report{Source: src, Base: base}
	rules, extra := u.loadRules(fsys, report)
	jobs := u.classify(fsys, src, base, store, rules, extra, report)

	if len(jobs) == 0 {
		u.logger.Info("nothing to upload", "source", src)
		report.NothingToUpload = true
		return report, nil
	}

	var rollback func(job)
	if u.opts.StrictDigests {
		rollback = func(j job) {
			if j.hadPrev {
				store.Set(j.key, j.prev)
			} else {
				store.Delete(j.key)
			}
		}
	}
	u.run(ctx, fsys, jobs, report, rollback)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("upload interrupted, digest store not saved: %w", err)
	}

	if err := store.Save(); err != nil {
		u.logger.Warn("failed to save digest store", "path", store.Path(), "error", err)
		report.SaveErr = err
	}
	return report, nil
}

// loadRules reads the exclusion resource and the optional ignore file. Both
// degrade to "exclude nothing" on error.
func (u *Uploader) loadRules(fsys billy.Filesystem, report *Report) (*exclude.Rules, exclude.Matcher) {
	rules, err := exclude.Load(u.opts.RulesPath)
	if err != nil {
		u.logger.Warn("ignoring exclusion rules", "path", u.opts.RulesPath, "error", err)
	}
	report.NoExclusionRules = rules.Empty()

	var globs exclude.Matcher
	if len(rules.Globs) > 0 {
		g, err := exclude.NewGlobMatcher(rules.Globs)
		if err != nil {
			u.logger.Warn("ignoring glob rules", "error", err)
		} else {
			globs = g
		}
	}

	var ignore exclude.Matcher
	if f := exclude.LoadIgnoreFile(fsys, ".", u.logger); f != nil {
		ignore = f
		report.IgnoreRules = f.Rules()
	}
	return rules, exclude.Any(globs, ignore)
}

// classify walks the tree, drops excluded files and builds the work list of
// new and changed files in discovery order.
func (u *Uploader) classify(
	fsys billy.Filesystem,
	src, base string,
	store *digest.Store,
	rules *exclude.Rules,
	extra exclude.Matcher,
	report *Report,
) []job {
	var jobs []job
	excludedDirs := mapset.NewThreadUnsafeSet[string]()

	for e, err := range scanner.Walk(fsys, ".") {
		if err != nil {
			u.logger.Warn("skipping unreadable entry", "path", e.Path, "error", err)
			report.Skipped = append(report.Skipped, sourceKey(src, e.Path))
			continue
		}
		key := sourceKey(src, e.Rel)

		if !e.Regular() {
			u.logger.Info("skipping non-regular file", "path", key, "mode", e.Mode.String())
			report.Skipped = append(report.Skipped, key)
			continue
		}

		// rooted so a directory rule also matches a top-level directory
		rooted := "/" + e.Rel
		if rules.ShouldExclude(rooted) || extra.Matches(e.Rel) {
			if dir, ok := excludedDir(rules, e.Rel); ok {
				if excludedDirs.Add(dir) {
					u.logger.Info("skipping excluded directory", "path", sourceKey(src, dir))
				}
				u.logger.Debug("skipping file in excluded directory", "path", key)
			} else {
				u.logger.Info("excluded", "path", key)
			}
			report.Excluded = append(report.Excluded, key)
			continue
		}

		sum, err := digest.File(fsys, e.Path)
		if err != nil {
			u.logger.Warn("skipping unreadable file", "path", key, "error", err)
			report.Skipped = append(report.Skipped, key)
			continue
		}

		prev, hadPrev := store.Get(key)
		switch {
		case !hadPrev:
			u.logger.Info("new", "path", key)
			report.New = append(report.New, key)
		case prev != sum:
			u.logger.Info("changed", "path", key)
			report.Changed = append(report.Changed, key)
		default:
			u.logger.Info("unchanged", "path", key)
			report.Unchanged = append(report.Unchanged, key)
			continue
		}

		store.Set(key, sum)
		jobs = append(jobs, job{
			fsPath:   e.Path,
			key:      key,
			repoPath: joinRepoPath(base, e.Rel),
			size:     e.Size,
			prev:     prev,
			hadPrev:  hadPrev,
		})
	}
	return jobs
}

// excludedDir returns the shallowest ancestor directory of rel that a
// directory rule matches.
func excludedDir(rules *exclude.Rules, rel string) (string, bool) {
	dir := path.Dir(rel)
	if dir == "." {
		return "", false
	}
	parts := strings.Split(dir, "/")
	for i := range parts {
		prefix := strings.Join(parts[:i+1], "/")
		if rules.MatchesDir("/" + prefix) {
			return prefix, true
		}
	}
	return "", false
}
