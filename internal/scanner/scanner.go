// Package scanner walks a local tree and yields the files found in it.
package scanner

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

var errStop = errors.New("scan stopped")

// Entry is one non-directory item reachable from the scan root.
type Entry struct {
	// Path is the item's path inside the filesystem, usable with Open.
	Path string
	// Rel is Path relative to the scan root, slash-separated.
	Rel string
	// Size is the byte size reported by Lstat.
	Size int64
	// Mode is the file mode reported by Lstat.
	Mode fs.FileMode
}

// Regular reports whether the entry is a plain file. Symlinks, sockets,
// devices and pipes are not.
func (e Entry) Regular() bool {
	return e.Mode.IsRegular()
}

// Walk returns a lazy sequence over every non-directory entry beneath root.
// Directories are descended into but never yielded. Each call re-walks the
// tree from scratch. Links are not followed.
//
// A per-entry error (for example an unreadable subdirectory) is yielded with a
// zero Entry carrying the offending path in Path; the walk then continues.
// A missing root yields a single fs.ErrNotExist error.
func Walk(fsys billy.Filesystem, root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if _, err := fsys.Stat(root); err != nil {
			yield(Entry{Path: root}, err)
			return
		}

		err := util.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				if !yield(Entry{Path: p}, err) {
					return errStop
				}
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() {
				return nil
			}

			e := Entry{
				Path: p,
				Rel:  relSlash(root, p),
				Size: info.Size(),
				Mode: info.Mode(),
			}
			if !yield(e, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(Entry{Path: root}, err)
		}
	}
}

func relSlash(root, p string) string {
	root = filepath.ToSlash(root)
	p = filepath.ToSlash(p)
	if root == "" || root == "." || root == "/" {
		return strings.TrimPrefix(path.Clean(p), "/")
	}
	rel := strings.TrimPrefix(p, strings.TrimSuffix(root, "/"))
	return strings.TrimPrefix(rel, "/")
}
