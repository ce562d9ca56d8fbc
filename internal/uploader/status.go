package uploader

import (
	"errors"

	"github.com/cbout22/ghsync/internal/digest"
)

// Status classifies the files under src the way UploadFolderIfChanged would,
// without uploading anything or touching the persisted digests. The New and
// Changed lists of the returned report are what a sync would send.
func (u *Uploader) Status(src string) (*Report, error) {
	if u.opts.Store == nil {
		return nil, errors.New("status needs a digest store")
	}
	fsys, err := u.openSource(src)
	if err != nil {
		return nil, err
	}

	// scratch copy: classification writes digests into the store it is given
	scratch := digest.Open(u.opts.Store.Path(), u.logger)
	scratch.Load()

	report := &Report{Source: src}
	rules, extra := u.loadRules(fsys, report)
	jobs := u.classify(fsys, src, "", scratch, rules, extra, report)
	report.NothingToUpload = len(jobs) == 0
	return report, nil
}
