package uploader

// Failure is one file whose upload did not succeed.
type Failure struct {
	Path     string
	RepoPath string
	Err      error
}

// Report summarises one pass. Paths are the local keys used in the digest
// store, so a failed path can be located and retried.
type Report struct {
	Source string
	Base   string

	New       []string
	Changed   []string
	Unchanged []string
	Excluded  []string
	// Skipped holds non-regular files and entries that could not be read.
	Skipped []string

	Uploaded []string
	Failed   []Failure
	// Bytes is the total size of the uploaded files.
	Bytes int64

	// NoFiles is set by a full upload that found nothing to send.
	NoFiles bool
	// NothingToUpload is set by an incremental pass whose work list was
	// empty. Persisted state is left untouched in that case.
	NothingToUpload bool
	// NoExclusionRules is set when the exclusion resource held no rules.
	NoExclusionRules bool
	// IgnoreRules is the number of rules read from the source's ignore file.
	IgnoreRules int

	// SaveErr is the error from persisting the digest store, if any.
	SaveErr error
}

// Processed is the number of files an upload was attempted for.
func (r *Report) Processed() int {
	return len(r.Uploaded) + len(r.Failed)
}

// FailedPaths lists the local paths of failed files.
func (r *Report) FailedPaths() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Path)
	}
	return out
}
